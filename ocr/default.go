package ocr

import "context"

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the engine installed by SetDefaultEngine, which is
// Tesseract once the tesseract package is linked in.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine replaces the default engine. Call it during setup only;
// it is not synchronized with running recognitions.
func SetDefaultEngine(engine Engine) {
	if engine == nil {
		engine = noopEngine{}
	}
	defaultEngine = engine
}

// NoopEngine returns an engine that recognizes nothing.
func NoopEngine() Engine { return noopEngine{} }

type noopEngine struct{}

func (noopEngine) Name() string {
	return "noop"
}

func (noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{InputID: input.ID}, nil
}
