// internal/websocket/router.go
package websocket

import (
	"fmt"
	"reflect"
)

// Router maps RPC method names onto the exported methods of the API
// object (the App). The App's methods marshal their work onto the store's
// owner loop, so RPC goroutines never touch store state directly.
type Router struct {
	api     interface{}
	methods map[string]reflect.Method
}

// NewRouter indexes the API's exported methods by name.
func NewRouter(api interface{}) *Router {
	r := &Router{
		api:     api,
		methods: make(map[string]reflect.Method),
	}

	apiType := reflect.TypeOf(api)
	for i := 0; i < apiType.NumMethod(); i++ {
		method := apiType.Method(i)
		if method.IsExported() {
			r.methods[method.Name] = method
		}
	}
	return r
}

// Call invokes the named method with JSON-decoded positional params.
func (r *Router) Call(methodName string, params []interface{}) (interface{}, error) {
	method, ok := r.methods[methodName]
	if !ok {
		return nil, fmt.Errorf("method not found: %s", methodName)
	}

	methodType := method.Type
	numIn := methodType.NumIn() - 1 // minus receiver

	if len(params) != numIn {
		return nil, fmt.Errorf("method %s expects %d params, got %d", methodName, numIn, len(params))
	}

	args := make([]reflect.Value, numIn+1)
	args[0] = reflect.ValueOf(r.api)

	for i, param := range params {
		expectedType := methodType.In(i + 1)
		paramValue, err := convertParam(param, expectedType)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		args[i+1] = paramValue
	}

	return processResults(method.Func.Call(args))
}

// convertParam coerces a JSON-decoded value to the parameter type. JSON
// numbers arrive as float64 and need widening/narrowing by hand.
func convertParam(param interface{}, targetType reflect.Type) (reflect.Value, error) {
	if param == nil {
		return reflect.Zero(targetType), nil
	}

	paramValue := reflect.ValueOf(param)
	if paramValue.Type().AssignableTo(targetType) {
		return paramValue, nil
	}

	if paramValue.Kind() == reflect.Float64 {
		f := param.(float64)
		switch targetType.Kind() {
		case reflect.Int:
			return reflect.ValueOf(int(f)), nil
		case reflect.Int64:
			return reflect.ValueOf(int64(f)), nil
		case reflect.Int32:
			return reflect.ValueOf(int32(f)), nil
		case reflect.Uint:
			return reflect.ValueOf(uint(f)), nil
		case reflect.Uint32:
			return reflect.ValueOf(uint32(f)), nil
		case reflect.Uint64:
			return reflect.ValueOf(uint64(f)), nil
		}
	}

	if paramValue.Type().ConvertibleTo(targetType) {
		return paramValue.Convert(targetType), nil
	}

	return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", param, targetType)
}

// processResults folds a reflected return list into (result, error). The
// API surface only has void, single-value, error, and (value, error)
// shapes; anything else is rejected.
func processResults(results []reflect.Value) (interface{}, error) {
	errType := reflect.TypeOf((*error)(nil)).Elem()

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if results[0].Type().Implements(errType) {
			if !results[0].IsNil() {
				return nil, results[0].Interface().(error)
			}
			return nil, nil
		}
		return results[0].Interface(), nil
	case 2:
		if !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported result shape: %d values", len(results))
	}
}
