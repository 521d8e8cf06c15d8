package events

import "image"

// SettingsStore persists user-facing preferences (default tool, last
// thickness/color per tool, background style) outside the document
// bundle itself, grounded on the teacher's internal/ocr.VisionClient
// pattern of defining an interface for a host-provided dependency with
// no default production implementation in this package.
type SettingsStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// ClipboardReader reads image data the host's OS clipboard is holding,
// used by paste-into-canvas.
type ClipboardReader interface {
	ReadImage() (image.Image, error)
}

// ClipboardWriter writes canvas content to the host's OS clipboard, used
// by selection.Selection.ToClipboard.
type ClipboardWriter interface {
	WriteImage(img image.Image) error
}

// FilePicker prompts the host's native file dialog, used for "attach
// PDF" / "insert picture" / "export" flows.
type FilePicker interface {
	PickOpenFile(filterDescription string, extensions []string) (path string, ok bool, err error)
	PickSaveFile(filterDescription, defaultName string) (path string, ok bool, err error)
}

// ControllerInput reports state from an external hardware controller
// (e.g. a paired remote used to flip pages), grounded on the teacher's
// convention of modeling every outside-the-process dependency as a
// narrow interface rather than importing a concrete SDK into engine
// code.
type ControllerInput interface {
	NextPageRequested() <-chan struct{}
	PrevPageRequested() <-chan struct{}
}
