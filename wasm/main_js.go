//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/quadstack/api"
	"github.com/voxelsplace/quadstack/utils"
)

func bytesArg(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func toJS(out []byte) js.Value {
	uint8arr := js.Global().Get("Uint8Array").New(len(out))
	js.CopyBytesToJS(uint8arr, out)
	return uint8arr
}

func convert(fn func([]byte) ([]byte, error), missing string) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return js.ValueOf(missing)
		}
		out, err := fn(bytesArg(args[0]))
		if err != nil {
			return js.ValueOf(err.Error())
		}
		return toJS(out)
	})
}

func sbr2qs(sbr []byte) ([]byte, error) {
	return api.SBRToPack(sbr, utils.DefaultConfig())
}

func stats(sbr []byte) ([]byte, error) {
	return api.Stats(sbr, utils.DefaultConfig())
}

// sample(packBytes, x, y, h) returns the material id or null.
func sample(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return js.ValueOf("usage: sample(pack, x, y, h)")
	}
	m, ok, err := api.Sample(bytesArg(args[0]), args[1].Int(), args[2].Int(), float32(args[3].Float()))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	if !ok {
		return js.Null()
	}
	return js.ValueOf(int(m))
}

func main() {
	js.Global().Set("sbr2qs", convert(sbr2qs, "missing sbr bytes"))
	js.Global().Set("qs2sbr", convert(api.PackToSBR, "missing pack bytes"))
	js.Global().Set("qs2glb", convert(api.PackToGLB, "missing pack bytes"))
	js.Global().Set("qsStats", convert(stats, "missing sbr bytes"))
	js.Global().Set("sample", js.FuncOf(sample))
	select {}
}
