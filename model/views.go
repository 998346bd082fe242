package model

import (
	"github.com/hupe1980/modelbuf/schema"
)

// Model is a lazy view of the root table of a model buffer. Nothing beyond
// the root offset is touched until a getter walks to it.
type Model struct {
	v schema.View
}

// RootModel returns a Model view of buf. The buffer is only structurally
// checked at the root; run verify.Verify first on untrusted input.
func RootModel(buf []byte) (Model, error) {
	v, err := schema.Root(registry, TypeModel, buf)
	if err != nil {
		return Model{}, err
	}
	return Model{v: v}, nil
}

// Version returns the format version the writer recorded.
func (m Model) Version() uint32 { return m.v.Uint32("version") }

// Description returns the free-form model description.
func (m Model) Description() string { return m.v.String("description") }

// NumOperatorCodes returns the number of registered operator codes.
func (m Model) NumOperatorCodes() int { return m.v.VectorLen("operator_codes") }

// OperatorCode returns operator code i.
func (m Model) OperatorCode(i int) OperatorCode {
	vec, _ := m.v.Vector("operator_codes")
	return OperatorCode{v: vec.Table(i)}
}

// NumSubGraphs returns the number of subgraphs.
func (m Model) NumSubGraphs() int { return m.v.VectorLen("subgraphs") }

// SubGraph returns subgraph i.
func (m Model) SubGraph(i int) SubGraph {
	vec, _ := m.v.Vector("subgraphs")
	return SubGraph{v: vec.Table(i)}
}

// NumBuffers returns the size of the model's data buffer pool.
func (m Model) NumBuffers() int { return m.v.VectorLen("buffers") }

// Buffer returns pool entry i. Index 0 is the conventional empty buffer.
func (m Model) Buffer(i int) Buffer {
	vec, _ := m.v.Vector("buffers")
	return Buffer{v: vec.Table(i)}
}

// MetadataBuffer returns the indexes of pool buffers holding metadata.
func (m Model) MetadataBuffer() []int32 {
	vec, ok := m.v.Vector("metadata_buffer")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// NumMetadata returns the number of named metadata entries.
func (m Model) NumMetadata() int { return m.v.VectorLen("metadata") }

// Metadata returns metadata entry i.
func (m Model) Metadata(i int) Metadata {
	vec, _ := m.v.Vector("metadata")
	return Metadata{v: vec.Table(i)}
}

// SubGraph is a view of one computation graph.
type SubGraph struct {
	v schema.View
}

// Name returns the subgraph name.
func (g SubGraph) Name() string { return g.v.String("name") }

// NumTensors returns the number of tensors in the graph.
func (g SubGraph) NumTensors() int { return g.v.VectorLen("tensors") }

// Tensor returns tensor i.
func (g SubGraph) Tensor(i int) Tensor {
	vec, _ := g.v.Vector("tensors")
	return Tensor{v: vec.Table(i)}
}

// Inputs returns the tensor indexes fed into the graph.
func (g SubGraph) Inputs() []int32 {
	vec, ok := g.v.Vector("inputs")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// Outputs returns the tensor indexes produced by the graph.
func (g SubGraph) Outputs() []int32 {
	vec, ok := g.v.Vector("outputs")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// NumOperators returns the number of operators in execution order.
func (g SubGraph) NumOperators() int { return g.v.VectorLen("operators") }

// Operator returns operator i.
func (g SubGraph) Operator(i int) Operator {
	vec, _ := g.v.Vector("operators")
	return Operator{v: vec.Table(i)}
}

// Tensor is a view of one tensor declaration.
type Tensor struct {
	v schema.View
}

// Name returns the tensor name.
func (t Tensor) Name() string { return t.v.String("name") }

// Shape returns the tensor's dimensions.
func (t Tensor) Shape() []int32 {
	vec, ok := t.v.Vector("shape")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// Type returns the element type.
func (t Tensor) Type() TensorType { return TensorType(t.v.Int8("type")) }

// BufferIndex returns the pool index of the tensor's data buffer. Zero means
// the tensor has no constant data.
func (t Tensor) BufferIndex() uint32 { return t.v.Uint32("buffer") }

// IsVariable reports whether the tensor is mutable across invocations.
func (t Tensor) IsVariable() bool { return t.v.Bool("is_variable") }

// Quantization returns the tensor's quantization parameters, if present.
func (t Tensor) Quantization() (Quantization, bool) {
	q, ok := t.v.Table("quantization")
	if !ok {
		return Quantization{}, false
	}
	return Quantization{v: q}, true
}

// Quantization is a view of per-tensor or per-axis quantization parameters.
type Quantization struct {
	v schema.View
}

// Min returns the recorded minimum values.
func (q Quantization) Min() []float32 {
	vec, ok := q.v.Vector("min")
	if !ok {
		return nil
	}
	return vec.Float32Values()
}

// Max returns the recorded maximum values.
func (q Quantization) Max() []float32 {
	vec, ok := q.v.Vector("max")
	if !ok {
		return nil
	}
	return vec.Float32Values()
}

// Scale returns the quantization scales, one per axis slice or a single
// entry for per-tensor quantization.
func (q Quantization) Scale() []float32 {
	vec, ok := q.v.Vector("scale")
	if !ok {
		return nil
	}
	return vec.Float32Values()
}

// ZeroPoint returns the zero points matching Scale.
func (q Quantization) ZeroPoint() []int64 {
	vec, ok := q.v.Vector("zero_point")
	if !ok {
		return nil
	}
	return vec.Int64Values()
}

// QuantizedDimension returns the axis the scales apply along.
func (q Quantization) QuantizedDimension() int32 { return q.v.Int32("quantized_dimension") }

// Operator is a view of one operator invocation.
type Operator struct {
	v schema.View
}

// OpcodeIndex returns the index into the model's operator_codes vector.
func (o Operator) OpcodeIndex() uint32 { return o.v.Uint32("opcode_index") }

// Inputs returns the input tensor indexes; -1 marks an optional input that
// is not connected.
func (o Operator) Inputs() []int32 {
	vec, ok := o.v.Vector("inputs")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// Outputs returns the output tensor indexes.
func (o Operator) Outputs() []int32 {
	vec, ok := o.v.Vector("outputs")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// BuiltinOptionsType returns the tag of the builtin_options union.
func (o Operator) BuiltinOptionsType() BuiltinOptionsType {
	return BuiltinOptionsType(o.v.Uint8("builtin_options_type"))
}

// BuiltinOptions returns the stored options variant as an untyped view.
// Callers switch on BuiltinOptionsType and wrap the view in the matching
// typed accessor, e.g. Conv2DOptions.
func (o Operator) BuiltinOptions() (schema.View, bool) {
	_, v, ok := o.v.Union("builtin_options")
	return v, ok
}

// CustomOptions returns the opaque payload of a custom operator, aliasing
// the buffer.
func (o Operator) CustomOptions() []byte {
	vec, ok := o.v.Vector("custom_options")
	if !ok {
		return nil
	}
	return vec.Uint8Values()
}

// OperatorCode is a view of one entry in the model's operator registry.
type OperatorCode struct {
	v schema.View
}

// BuiltinCode returns the builtin operator, or OpCustom.
func (c OperatorCode) BuiltinCode() BuiltinOperator { return BuiltinOperator(c.v.Int8("builtin_code")) }

// CustomCode returns the registered name of a custom operator.
func (c OperatorCode) CustomCode() string { return c.v.String("custom_code") }

// Version returns the operator version, 1 if unset.
func (c OperatorCode) Version() int32 { return c.v.Int32("version") }

// Buffer is a view of one entry in the model's data pool.
type Buffer struct {
	v schema.View
}

// Data returns the raw bytes, aliasing the underlying buffer. Empty pool
// entries return nil.
func (b Buffer) Data() []byte {
	vec, ok := b.v.Vector("data")
	if !ok {
		return nil
	}
	return vec.Uint8Values()
}

// Metadata is a view of one named metadata entry.
type Metadata struct {
	v schema.View
}

// Name returns the metadata key.
func (md Metadata) Name() string { return md.v.String("name") }

// BufferIndex returns the pool index holding the metadata payload.
func (md Metadata) BufferIndex() uint32 { return md.v.Uint32("buffer") }

// Conv2DOptions wraps the Conv2DOptions union variant.
type Conv2DOptions struct{ v schema.View }

// AsConv2DOptions types an untyped union view.
func AsConv2DOptions(v schema.View) Conv2DOptions { return Conv2DOptions{v: v} }

func (o Conv2DOptions) Padding() Padding { return Padding(o.v.Int8("padding")) }
func (o Conv2DOptions) StrideW() int32   { return o.v.Int32("stride_w") }
func (o Conv2DOptions) StrideH() int32   { return o.v.Int32("stride_h") }
func (o Conv2DOptions) DilationW() int32 { return o.v.Int32("dilation_w_factor") }
func (o Conv2DOptions) DilationH() int32 { return o.v.Int32("dilation_h_factor") }
func (o Conv2DOptions) FusedActivation() ActivationFunctionType {
	return ActivationFunctionType(o.v.Int8("fused_activation_function"))
}

// FullyConnectedOptions wraps the FullyConnectedOptions union variant.
type FullyConnectedOptions struct{ v schema.View }

// AsFullyConnectedOptions types an untyped union view.
func AsFullyConnectedOptions(v schema.View) FullyConnectedOptions {
	return FullyConnectedOptions{v: v}
}

func (o FullyConnectedOptions) WeightsFormat() int8 { return o.v.Int8("weights_format") }
func (o FullyConnectedOptions) KeepNumDims() bool   { return o.v.Bool("keep_num_dims") }
func (o FullyConnectedOptions) AsymmetricQuantizeInputs() bool {
	return o.v.Bool("asymmetric_quantize_inputs")
}
func (o FullyConnectedOptions) FusedActivation() ActivationFunctionType {
	return ActivationFunctionType(o.v.Int8("fused_activation_function"))
}

// MulOptions wraps the MulOptions union variant.
type MulOptions struct{ v schema.View }

// AsMulOptions types an untyped union view.
func AsMulOptions(v schema.View) MulOptions { return MulOptions{v: v} }

func (o MulOptions) FusedActivation() ActivationFunctionType {
	return ActivationFunctionType(o.v.Int8("fused_activation_function"))
}

// SubOptions wraps the SubOptions union variant.
type SubOptions struct{ v schema.View }

// AsSubOptions types an untyped union view.
func AsSubOptions(v schema.View) SubOptions { return SubOptions{v: v} }

func (o SubOptions) FusedActivation() ActivationFunctionType {
	return ActivationFunctionType(o.v.Int8("fused_activation_function"))
}

// SqueezeOptions wraps the SqueezeOptions union variant.
type SqueezeOptions struct{ v schema.View }

// AsSqueezeOptions types an untyped union view.
func AsSqueezeOptions(v schema.View) SqueezeOptions { return SqueezeOptions{v: v} }

func (o SqueezeOptions) SqueezeDims() []int32 {
	vec, ok := o.v.Vector("squeeze_dims")
	if !ok {
		return nil
	}
	return vec.Int32Values()
}

// StridedSliceOptions wraps the StridedSliceOptions union variant.
type StridedSliceOptions struct{ v schema.View }

// AsStridedSliceOptions types an untyped union view.
func AsStridedSliceOptions(v schema.View) StridedSliceOptions { return StridedSliceOptions{v: v} }

func (o StridedSliceOptions) BeginMask() int32      { return o.v.Int32("begin_mask") }
func (o StridedSliceOptions) EndMask() int32        { return o.v.Int32("end_mask") }
func (o StridedSliceOptions) EllipsisMask() int32   { return o.v.Int32("ellipsis_mask") }
func (o StridedSliceOptions) NewAxisMask() int32    { return o.v.Int32("new_axis_mask") }
func (o StridedSliceOptions) ShrinkAxisMask() int32 { return o.v.Int32("shrink_axis_mask") }

// ResizeBilinearOptions wraps the ResizeBilinearOptions union variant.
type ResizeBilinearOptions struct{ v schema.View }

// AsResizeBilinearOptions types an untyped union view.
func AsResizeBilinearOptions(v schema.View) ResizeBilinearOptions {
	return ResizeBilinearOptions{v: v}
}

func (o ResizeBilinearOptions) AlignCorners() bool     { return o.v.Bool("align_corners") }
func (o ResizeBilinearOptions) HalfPixelCenters() bool { return o.v.Bool("half_pixel_centers") }

// GatherOptions wraps the GatherOptions union variant.
type GatherOptions struct{ v schema.View }

// AsGatherOptions types an untyped union view.
func AsGatherOptions(v schema.View) GatherOptions { return GatherOptions{v: v} }

func (o GatherOptions) Axis() int32      { return o.v.Int32("axis") }
func (o GatherOptions) BatchDims() int32 { return o.v.Int32("batch_dims") }

// BCQGatherOptions wraps the BCQGatherOptions union variant.
type BCQGatherOptions struct{ v schema.View }

// AsBCQGatherOptions types an untyped union view.
func AsBCQGatherOptions(v schema.View) BCQGatherOptions { return BCQGatherOptions{v: v} }

func (o BCQGatherOptions) InputHiddenSize() int32 { return o.v.Int32("input_hidden_size") }
func (o BCQGatherOptions) Axis() int32            { return o.v.Int32("axis") }
