package build

import "errors"

// Sentinel errors naming the build phase that failed.
var (
	ErrConfigHook  = errors.New("multipage: config hook error")
	ErrBundle      = errors.New("multipage: bundle error")
	ErrWriteBundle = errors.New("multipage: write bundle error")
)
