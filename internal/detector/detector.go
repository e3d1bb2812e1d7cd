package detector

// Config tunes the defect detector.
type Config struct {
	// ModelPath points at an exported ONNX model. Empty means no model
	// was found; the detector then runs its contour heuristics.
	ModelPath string
	// MinArea is the smallest pixel area a contour may cover before it
	// is reported as a defect.
	MinArea int
}

// classNames are the PCB defect classes the model was trained on.
var classNames = []string{
	"missing_hole",
	"mouse_bite",
	"open_circuit",
	"short",
	"spur",
	"spurious_copper",
}

func className(id int) string {
	if id >= 0 && id < len(classNames) {
		return classNames[id]
	}
	return "defect"
}
