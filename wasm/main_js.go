//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/voxgen/api"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

// renderJob(source, format) returns {name, data} or an error string.
func renderJob(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing job source")
	}
	format := "yaml"
	if len(args) > 1 && args[1].Type() == js.TypeString {
		format = args[1].String()
	}
	out, name, err := api.RenderJobBytes([]byte(args[0].String()), format)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	result := js.Global().Get("Object").New()
	result.Set("name", name)
	result.Set("data", bytesToJS(out))
	return result
}

func vox2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing vox bytes")
	}
	out, err := api.VoxToGLB(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func packVox(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing files object")
	}
	filesObj := args[0]
	files := map[string][]byte{}
	keys := js.Global().Get("Object").Call("keys", filesObj)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		files[k] = bytesFromJS(filesObj.Get(k))
	}
	out, err := api.PackVox(files)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func unpackVoxpack(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	files, err := api.UnpackVoxPack(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	result := js.Global().Get("Object").New()
	for name, b := range files {
		result.Set(name, bytesToJS(b))
	}
	return result
}

func main() {
	js.Global().Set("renderJob", js.FuncOf(renderJob))
	js.Global().Set("vox2glb", js.FuncOf(vox2glb))
	js.Global().Set("packVox", js.FuncOf(packVox))
	js.Global().Set("unpackVoxpack", js.FuncOf(unpackVoxpack))
	select {}
}
