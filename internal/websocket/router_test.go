// internal/websocket/router_test.go
package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	lastName  string
	lastFrame int
}

func (f *fakeAPI) SetFrame(frame int) {
	f.lastFrame = frame
}

func (f *fakeAPI) SetActiveCurve(name string) error {
	if name == "missing" {
		return errors.New("unknown curve")
	}
	f.lastName = name
	return nil
}

func (f *fakeAPI) GetFrame() int {
	return f.lastFrame
}

func (f *fakeAPI) AddPoint(name string, frame int, x float64) (int, error) {
	return frame + 1, nil
}

func TestRouterCallsVoidMethod(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)

	// JSON numbers decode as float64 and must coerce to int params.
	result, err := r.Call("SetFrame", []interface{}{float64(42)})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 42, api.lastFrame)
}

func TestRouterPropagatesError(t *testing.T) {
	r := NewRouter(&fakeAPI{})

	_, err := r.Call("SetActiveCurve", []interface{}{"missing"})
	assert.EqualError(t, err, "unknown curve")

	_, err = r.Call("SetActiveCurve", []interface{}{"GateL"})
	assert.NoError(t, err)
}

func TestRouterReturnsValue(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)

	_, err := r.Call("SetFrame", []interface{}{float64(7)})
	require.NoError(t, err)

	result, err := r.Call("GetFrame", []interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestRouterValueAndError(t *testing.T) {
	r := NewRouter(&fakeAPI{})

	result, err := r.Call("AddPoint", []interface{}{"GateL", float64(3), 1.5})
	require.NoError(t, err)
	assert.Equal(t, 4, result)
}

func TestRouterRejectsBadCalls(t *testing.T) {
	r := NewRouter(&fakeAPI{})

	_, err := r.Call("NoSuchMethod", nil)
	assert.Error(t, err)

	_, err = r.Call("SetFrame", []interface{}{})
	assert.Error(t, err, "arity mismatch")

	_, err = r.Call("SetFrame", []interface{}{"not a number"})
	assert.Error(t, err)
}
