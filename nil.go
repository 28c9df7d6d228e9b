package dataapi

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// isNil reports whether v is nil or a typed nil, such as a zero bson.D.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// orEmpty substitutes an empty document for a nil filter on actions where
// the gateway requires one.
func orEmpty(filter any) any {
	if isNil(filter) {
		return bson.D{}
	}
	return filter
}

// orEmptyArray substitutes an empty array for a nil list.
func orEmptyArray(list any) any {
	if isNil(list) {
		return bson.A{}
	}
	return list
}
