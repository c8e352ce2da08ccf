package store

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode 确定性 CBOR 编码，同一记录总是得到相同字节
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: cbor encoder init failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("store: cbor decoder init failed: " + err.Error())
	}
}

// Marshal 编码记录
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal 解码记录
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}
