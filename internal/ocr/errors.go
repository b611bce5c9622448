package ocr

import "fmt"

// ImageLoadError means the helper could not decode the input image, or the
// crop could not be encoded for it. Transient: callers retry next poll.
type ImageLoadError struct {
	Path   string
	Detail string
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("ocr image load failed for %s: %s", e.Path, e.Detail)
}

// RecognitionEngineError means the helper crashed, timed out, or exited
// non-zero for any reason other than an unreadable image. Transient.
type RecognitionEngineError struct {
	Detail string
	Err    error
}

func (e *RecognitionEngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr engine failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("ocr engine failed: %s", e.Detail)
}

func (e *RecognitionEngineError) Unwrap() error {
	return e.Err
}
