//go:build !jsonstd

package jsoncompat

import "github.com/bytedance/sonic"

// sorted map keys and escaped html, same output as encoding/json
var api codec = sonic.ConfigStd
