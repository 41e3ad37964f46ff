// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierhttp

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// QueryTagName is the struct tag consulted when encoding a struct as query
// parameters.  Untagged fields use their Go field name.
const QueryTagName = "query"

// EncodeQuery converts v into query parameters.  Supported values are nil,
// url.Values, map[string]string, map[string][]string, and anything that
// mapstructure can decode into a map[string]any, such as structs and maps.
//
// Slices and arrays produce one value per element.  Nil values are omitted.
func EncodeQuery(v any) (url.Values, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil

	case url.Values:
		return t, nil

	case map[string][]string:
		return url.Values(t), nil

	case map[string]string:
		values := make(url.Values, len(t))
		for k, v := range t {
			values.Set(k, v)
		}

		return values, nil
	}

	var m map[string]any
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: QueryTagName,
		Result:  &m,
	})

	if err == nil {
		err = decoder.Decode(v)
	}

	if err != nil {
		return nil, err
	}

	values := make(url.Values, len(m))
	for k, v := range m {
		addValue(values, k, reflect.ValueOf(v))
	}

	return values, nil
}

func addValue(values url.Values, key string, v reflect.Value) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Invalid:
		return

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			addValue(values, key, v.Index(i))
		}

	default:
		values.Add(key, fmt.Sprint(v.Interface()))
	}
}

// JoinURL resolves ref against base the way browsers' HTTP clients join a
// base address:  an absolute ref is used as is, otherwise the two are joined
// with exactly one slash between them.
func JoinURL(base, ref string) (*url.URL, error) {
	if len(base) == 0 {
		return url.Parse(ref)
	}

	if len(ref) == 0 {
		return url.Parse(base)
	}

	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return u, err
	}

	return url.Parse(
		strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/"),
	)
}
