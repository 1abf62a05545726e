//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/engine"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
	"github.com/draftkit/draftkit/backend-go/internal/snap"
	"github.com/draftkit/draftkit/backend-go/internal/store"
	"github.com/draftkit/draftkit/backend-go/internal/typeid"
)

var (
	docStore *store.Store
	editor   *engine.Editor
)

func main() {
	loadSample()

	kernel := js.Global().Get("Object").New()

	// --- Commands (frontend -> kernel) ---
	kernel.Set("loadDocument", js.FuncOf(loadDocument))
	kernel.Set("loadSampleDrawing", js.FuncOf(loadSampleDrawing))
	kernel.Set("pointerDown", js.FuncOf(pointerDown))
	kernel.Set("pointerMove", js.FuncOf(pointerMove))
	kernel.Set("pointerUp", js.FuncOf(pointerUp))
	kernel.Set("escape", js.FuncOf(escape))
	kernel.Set("undo", js.FuncOf(undo))
	kernel.Set("redo", js.FuncOf(redo))
	kernel.Set("setViewport", js.FuncOf(setViewport))
	kernel.Set("setSelection", js.FuncOf(setSelection))
	kernel.Set("startTool", js.FuncOf(startTool))
	kernel.Set("resetTool", js.FuncOf(resetTool))

	// --- Queries (frontend <- kernel) ---
	kernel.Set("getDocument", js.FuncOf(getDocument))
	kernel.Set("getSelection", js.FuncOf(getSelection))
	kernel.Set("hitTest", js.FuncOf(hitTest))
	kernel.Set("gripPoints", js.FuncOf(gripPoints))
	kernel.Set("queryShapes", js.FuncOf(queryShapes))
	kernel.Set("toolPreview", js.FuncOf(toolPreview))
	kernel.Set("trackingLines", js.FuncOf(trackingLines))

	js.Global().Set("draftkitKernel", kernel)
	js.Global().Set("draftkitWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func loadSample() {
	docStore = store.New(document.NewSampleDrawing("dwg_playground"))
	editor = newEditor(docStore)
}

func newEditor(s *store.Store) *engine.Editor {
	ed := engine.NewEditor(s, typeid.NewShapeID)
	ed.SetSnapResolver(snap.New(), engine.DefaultSnapKinds(), engine.DefaultGridSize)
	return ed
}

func errResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	var doc document.DraftDocument
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return errResult(err)
	}

	docStore = store.New(&doc)
	editor = newEditor(docStore)
	return okResult()
}

func loadSampleDrawing(this js.Value, args []js.Value) interface{} {
	loadSample()
	return okResult()
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	editor.PointerDown(geometry.Pt(args[0].Float(), args[1].Float()))
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	editor.PointerMove(geometry.Pt(args[0].Float(), args[1].Float()))
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	editor.PointerUp(geometry.Pt(args[0].Float(), args[1].Float()))
	return nil
}

func escape(this js.Value, args []js.Value) interface{} {
	editor.Escape()
	return nil
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(editor.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(editor.Redo())
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	vp := editor.Viewport()
	if z := args[0].Float(); z > 0 {
		vp.Zoom = z
	}
	vp.PanX = args[1].Float()
	vp.PanY = args[2].Float()
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		editor.ClearSelection()
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	editor.Select(ids...)
	return nil
}

func startTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing tool name"})
	}

	var opts engine.ToolOptions
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[1].String()), &opts); err != nil {
			return errResult(err)
		}
	}

	editor.Tools().Start(engine.ToolKind(args[0].String()), editor.Selection(), opts)
	return okResult()
}

func resetTool(this js.Value, args []js.Value) interface{} {
	editor.Tools().Reset()
	return nil
}

// --- Query Handlers ---

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(docStore.Document())
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	ids := editor.Selection()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	world := editor.Viewport().ScreenToWorld(geometry.Pt(args[0].Float(), args[1].Float()))
	shape, ok := editor.HitTest(world)
	if !ok {
		return js.Null()
	}
	return js.ValueOf(shape.ID)
}

func gripPoints(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	shape, ok := docStore.Shape(args[0].String())
	if !ok {
		return js.Null()
	}
	data, err := json.Marshal(engine.GripPoints(shape))
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}

func toolPreview(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	world := editor.Viewport().ScreenToWorld(geometry.Pt(args[0].Float(), args[1].Float()))
	shapes := editor.Tools().Preview(world)
	if len(shapes) == 0 {
		return js.Null()
	}
	data, err := json.Marshal(shapes)
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}

func trackingLines(this js.Value, args []js.Value) interface{} {
	lines := editor.Grips().TrackingLines()
	if len(lines) == 0 {
		return js.Null()
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}
	if len(args) < 4 {
		return js.Null()
	}
	box := geometry.Box(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float())
	data, err := json.Marshal(docStore.Query(box))
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}
