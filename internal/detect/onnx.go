package detect

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Options configures an ONNXDetector.
type Options struct {
	ModelPath   string
	NamesPath   string // optional YAML names file; defaults to the model metadata
	LibraryPath string // onnxruntime shared library; empty uses the platform default
	InputSize   int
	Confidence  float32
	IoU         float32
	InputName   string
	OutputName  string
}

// ONNXDetector runs an Ultralytics YOLOv8/YOLO11 ONNX export with ONNX Runtime.
type ONNXDetector struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	names   Names
	classes int
	anchors int
	opts    Options
}

var initOnce sync.Once
var initErr error

// initRuntime initializes the ONNX Runtime environment once per process.
func initRuntime(libraryPath string) error {
	initOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	return initErr
}

// NewONNXDetector loads the model at opts.ModelPath. The caller must call Close().
func NewONNXDetector(opts Options) (*ONNXDetector, error) {
	if opts.InputSize == 0 {
		opts.InputSize = 640
	}
	if opts.InputName == "" {
		opts.InputName = "images"
	}
	if opts.OutputName == "" {
		opts.OutputName = "output0"
	}

	if err := initRuntime(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("detect: initialize onnxruntime: %w", err)
	}

	names, err := loadModelNames(opts)
	if err != nil {
		return nil, err
	}

	classes, anchors, err := outputShape(opts, len(names))
	if err != nil {
		return nil, err
	}
	if len(names) < classes {
		slog.Warn("model has more classes than names; unnamed classes are never highlighted", "classes", classes, "names", len(names))
	}

	d := &ONNXDetector{
		names:   names,
		classes: classes,
		anchors: anchors,
		opts:    opts,
	}

	size := int64(opts.InputSize)
	d.input, err = ort.NewTensor(ort.NewShape(1, 3, size, size), make([]float32, 3*size*size))
	if err != nil {
		return nil, fmt.Errorf("detect: allocate input tensor: %w", err)
	}

	d.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+d.classes), int64(d.anchors)))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("detect: allocate output tensor: %w", err)
	}

	d.session, err = ort.NewAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.Value{d.input}, []ort.Value{d.output}, nil)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("detect: load model %q: %w", opts.ModelPath, err)
	}

	slog.Debug("detector loaded", "model", opts.ModelPath, "classes", d.classes, "input", opts.InputSize)
	return d, nil
}

// outputShape finds opts.OutputName among the model outputs and checks its
// dimensions with checkOutputShape.
func outputShape(opts Options, named int) (classes, anchors int, err error) {
	_, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return 0, 0, fmt.Errorf("detect: read model outputs %q: %w", opts.ModelPath, err)
	}
	for _, o := range outputs {
		if o.Name == opts.OutputName {
			return checkOutputShape(o.Name, o.Dimensions, opts.InputSize, named)
		}
	}
	return 0, 0, fmt.Errorf("detect: model %q has no output %q", opts.ModelPath, opts.OutputName)
}

// checkOutputShape validates a raw YOLO head of shape [1, 4+classes, anchors]
// and returns its class and anchor counts. Dynamic dimensions fall back to
// the names count and the anchor count for inputSize. Models exported with
// embedded NMS emit [1, detections, 6] instead, which is rejected.
func checkOutputShape(name string, dims []int64, inputSize, named int) (classes, anchors int, err error) {
	if len(dims) != 3 {
		return 0, 0, fmt.Errorf("detect: output %q has shape %v, want [1, 4+classes, anchors]", name, dims)
	}
	want := Anchors(inputSize)
	anchors = int(dims[2])
	switch {
	case anchors <= 0:
		anchors = want
	case anchors != want:
		return 0, 0, fmt.Errorf("detect: output %q has shape %v, want [1, 4+classes, %d] for a %dpx input; "+
			"the model was probably exported with nms=True (re-export with -format onnx -nms=false) "+
			"or for a different input size", name, dims, want, inputSize)
	}
	classes = int(dims[1]) - 4
	if classes <= 0 {
		classes = named
	}
	if classes <= 0 {
		return 0, 0, fmt.Errorf("detect: output %q has no class dimension and no class names", name)
	}
	return classes, anchors, nil
}

func loadModelNames(opts Options) (Names, error) {
	if opts.NamesPath != "" {
		return LoadNames(opts.NamesPath)
	}

	meta, err := ort.GetModelMetadata(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("detect: read model metadata %q: %w", opts.ModelPath, err)
	}
	defer meta.Destroy()

	raw, ok, err := meta.LookupCustomMetadataMap("names")
	if err != nil {
		return nil, fmt.Errorf("detect: read names metadata: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("detect: model %q has no names metadata; set detect.names_path", opts.ModelPath)
	}
	return ParseNames(raw)
}

// Names returns the class index to name mapping.
func (d *ONNXDetector) Names() Names {
	return d.names
}

// InputSize returns the square input edge length in pixels.
func (d *ONNXDetector) InputSize() int {
	return d.opts.InputSize
}

// Detect runs inference on an NCHW float32 input of InputSize x InputSize.
func (d *ONNXDetector) Detect(input []float32, src image.Point) ([]Detection, error) {
	dst := d.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("detect: input has %d values, want %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("detect: run: %w", err)
	}

	candidates, err := Decode(d.output.GetData(), d.classes, d.anchors, d.opts.Confidence)
	if err != nil {
		return nil, err
	}
	return Scale(NMS(candidates, d.opts.IoU), d.opts.InputSize, src), nil
}

// Close releases the session and tensors.
func (d *ONNXDetector) Close() error {
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.input != nil {
		d.input.Destroy()
		d.input = nil
	}
	if d.output != nil {
		d.output.Destroy()
		d.output = nil
	}
	return nil
}
