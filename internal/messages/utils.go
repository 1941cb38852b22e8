package messages

import (
	"reflect"
	"runtime"
	"strings"
)

// GetComponent returns the package name of the function passed in, used as
// the component label of a message.
func GetComponent(temp interface{}) string {
	strs := strings.Split((runtime.FuncForPC(reflect.ValueOf(temp).Pointer()).Name()), ".")
	if len(strs) < 2 {
		return strs[0]
	}
	strs = strings.Split(strs[len(strs)-2], "/")
	return strs[len(strs)-1]
}
