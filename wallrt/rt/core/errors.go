package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateTransform is returned when a matrix that must be inverted is singular.
	ErrDegenerateTransform = errors.New("degenerate transform")
	// ErrMissingWallPlane is returned when no usable wall plane is detected.
	ErrMissingWallPlane = errors.New("missing wall plane")
	// ErrInvalidSwatchConfig is returned when the swatch tiling is unusable.
	// The compositor still produces a record using the default tiling.
	ErrInvalidSwatchConfig = errors.New("invalid swatch config")
	// ErrNodeRemoved is returned for a node handle that no longer refers to a live node.
	ErrNodeRemoved = errors.New("node removed")
	// ErrInvalidBounds is returned for a bounding box with min > max or non-finite corners.
	ErrInvalidBounds = errors.New("invalid bounds")
)

// TransformError names the matrix that could not be inverted.
type TransformError struct {
	Matrix string
	Det    float32
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %s (det=%g)", ErrDegenerateTransform, e.Matrix, e.Det)
}

func (e *TransformError) Unwrap() error {
	return ErrDegenerateTransform
}

// NodeError ties a resolution failure to the node it belongs to.
type NodeError struct {
	Node NodeID
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %v: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
