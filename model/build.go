package model

import (
	"errors"
	"fmt"

	"github.com/hupe1980/modelbuf/flatbuf"
)

// The T types form a plain mutable object tree mirroring the table layouts.
// Construct or edit the tree, then Build serializes it into one finished
// buffer. Nil children and zero-valued fields are omitted from the output
// and read back as defaults.

// ModelT is the root of a model under construction.
type ModelT struct {
	Version        uint32
	OperatorCodes  []*OperatorCodeT
	SubGraphs      []*SubGraphT
	Description    string
	Buffers        []*BufferT
	MetadataBuffer []int32
	Metadata       []*MetadataT
}

// SubGraphT is one computation graph under construction.
type SubGraphT struct {
	Tensors   []*TensorT
	Inputs    []int32
	Outputs   []int32
	Operators []*OperatorT
	Name      string
}

// TensorT is one tensor declaration under construction.
type TensorT struct {
	Shape        []int32
	Type         TensorType
	Buffer       uint32
	Name         string
	Quantization *QuantizationT
	IsVariable   bool
}

// QuantizationT holds quantization parameters under construction.
type QuantizationT struct {
	Min                []float32
	Max                []float32
	Scale              []float32
	ZeroPoint          []int64
	QuantizedDimension int32
}

// OperatorT is one operator invocation under construction.
type OperatorT struct {
	OpcodeIndex         uint32
	Inputs              []int32
	Outputs             []int32
	BuiltinOptions      BuiltinOptionsT
	CustomOptions       []byte
	CustomOptionsFormat int8
}

// OperatorCodeT is one operator registry entry under construction.
type OperatorCodeT struct {
	BuiltinCode BuiltinOperator
	CustomCode  string
	Version     int32
}

// BufferT is one data pool entry under construction.
type BufferT struct {
	Data []byte
}

// MetadataT is one named metadata entry under construction.
type MetadataT struct {
	Name   string
	Buffer uint32
}

// BuiltinOptionsT is implemented by every builtin_options union variant.
type BuiltinOptionsT interface {
	// OptionsType returns the union tag the variant serializes under.
	OptionsType() BuiltinOptionsType

	pack(b *flatbuf.Builder) flatbuf.UOffsetT
}

// Build serializes the tree into a finished buffer carrying the model file
// identifier. The builder is reset first, so one builder can be reused
// across calls. Building a model too large for the 32-bit offset space
// returns an error.
func (m *ModelT) Build(b *flatbuf.Builder) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			var size *flatbuf.ErrSizeExceeded
			if e, ok := r.(error); ok && errors.As(e, &size) {
				err = fmt.Errorf("model: build: %w", e)
				return
			}
			panic(r)
		}
	}()

	b.Reset()
	root := m.pack(b)
	b.FinishWithIdentifier(root, FileIdentifier)
	return b.FinishedBytes(), nil
}

func (m *ModelT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	codes := make([]flatbuf.UOffsetT, len(m.OperatorCodes))
	for i, c := range m.OperatorCodes {
		codes[i] = c.pack(b)
	}
	codesVec := offsetVector(b, codes)

	graphs := make([]flatbuf.UOffsetT, len(m.SubGraphs))
	for i, g := range m.SubGraphs {
		graphs[i] = g.pack(b)
	}
	graphsVec := offsetVector(b, graphs)

	buffers := make([]flatbuf.UOffsetT, len(m.Buffers))
	for i, buf := range m.Buffers {
		buffers[i] = buf.pack(b)
	}
	buffersVec := offsetVector(b, buffers)

	metadata := make([]flatbuf.UOffsetT, len(m.Metadata))
	for i, md := range m.Metadata {
		metadata[i] = md.pack(b)
	}
	metadataVec := offsetVector(b, metadata)

	var description flatbuf.UOffsetT
	if m.Description != "" {
		description = b.CreateString(m.Description)
	}
	metadataBuffer := int32Vector(b, m.MetadataBuffer)

	d := registry.MustLookup(TypeModel)
	b.StartObject(d.NumSlots())
	b.PrependUint32Slot(d.MustField("version").Slot, m.Version, 0)
	b.PrependUOffsetTSlot(d.MustField("operator_codes").Slot, codesVec)
	b.PrependUOffsetTSlot(d.MustField("subgraphs").Slot, graphsVec)
	b.PrependUOffsetTSlot(d.MustField("description").Slot, description)
	b.PrependUOffsetTSlot(d.MustField("buffers").Slot, buffersVec)
	b.PrependUOffsetTSlot(d.MustField("metadata_buffer").Slot, metadataBuffer)
	b.PrependUOffsetTSlot(d.MustField("metadata").Slot, metadataVec)
	return b.EndObject()
}

func (g *SubGraphT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	tensors := make([]flatbuf.UOffsetT, len(g.Tensors))
	for i, t := range g.Tensors {
		tensors[i] = t.pack(b)
	}
	tensorsVec := offsetVector(b, tensors)

	operators := make([]flatbuf.UOffsetT, len(g.Operators))
	for i, o := range g.Operators {
		operators[i] = o.pack(b)
	}
	operatorsVec := offsetVector(b, operators)

	inputs := int32Vector(b, g.Inputs)
	outputs := int32Vector(b, g.Outputs)
	var name flatbuf.UOffsetT
	if g.Name != "" {
		name = b.CreateString(g.Name)
	}

	d := registry.MustLookup(TypeSubGraph)
	b.StartObject(d.NumSlots())
	b.PrependUOffsetTSlot(d.MustField("tensors").Slot, tensorsVec)
	b.PrependUOffsetTSlot(d.MustField("inputs").Slot, inputs)
	b.PrependUOffsetTSlot(d.MustField("outputs").Slot, outputs)
	b.PrependUOffsetTSlot(d.MustField("operators").Slot, operatorsVec)
	b.PrependUOffsetTSlot(d.MustField("name").Slot, name)
	return b.EndObject()
}

func (t *TensorT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	var quant flatbuf.UOffsetT
	if t.Quantization != nil {
		quant = t.Quantization.pack(b)
	}
	shape := int32Vector(b, t.Shape)
	var name flatbuf.UOffsetT
	if t.Name != "" {
		name = b.CreateString(t.Name)
	}

	d := registry.MustLookup(TypeTensor)
	b.StartObject(d.NumSlots())
	b.PrependUOffsetTSlot(d.MustField("shape").Slot, shape)
	b.PrependInt8Slot(d.MustField("type").Slot, int8(t.Type), 0)
	b.PrependUint32Slot(d.MustField("buffer").Slot, t.Buffer, 0)
	b.PrependUOffsetTSlot(d.MustField("name").Slot, name)
	b.PrependUOffsetTSlot(d.MustField("quantization").Slot, quant)
	b.PrependBoolSlot(d.MustField("is_variable").Slot, t.IsVariable, false)
	return b.EndObject()
}

func (q *QuantizationT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	min := float32Vector(b, q.Min)
	max := float32Vector(b, q.Max)
	scale := float32Vector(b, q.Scale)
	zeroPoint := int64Vector(b, q.ZeroPoint)

	d := registry.MustLookup(TypeQuantization)
	b.StartObject(d.NumSlots())
	b.PrependUOffsetTSlot(d.MustField("min").Slot, min)
	b.PrependUOffsetTSlot(d.MustField("max").Slot, max)
	b.PrependUOffsetTSlot(d.MustField("scale").Slot, scale)
	b.PrependUOffsetTSlot(d.MustField("zero_point").Slot, zeroPoint)
	b.PrependInt32Slot(d.MustField("quantized_dimension").Slot, q.QuantizedDimension, 0)
	return b.EndObject()
}

func (o *OperatorT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	var optionsType BuiltinOptionsType
	var options flatbuf.UOffsetT
	if o.BuiltinOptions != nil {
		optionsType = o.BuiltinOptions.OptionsType()
		options = o.BuiltinOptions.pack(b)
	}
	inputs := int32Vector(b, o.Inputs)
	outputs := int32Vector(b, o.Outputs)
	var custom flatbuf.UOffsetT
	if len(o.CustomOptions) > 0 {
		custom = b.CreateByteVector(o.CustomOptions)
	}

	d := registry.MustLookup(TypeOperator)
	b.StartObject(d.NumSlots())
	b.PrependUint32Slot(d.MustField("opcode_index").Slot, o.OpcodeIndex, 0)
	b.PrependUOffsetTSlot(d.MustField("inputs").Slot, inputs)
	b.PrependUOffsetTSlot(d.MustField("outputs").Slot, outputs)
	b.PrependUint8Slot(d.MustField("builtin_options_type").Slot, uint8(optionsType), 0)
	b.PrependUOffsetTSlot(d.MustField("builtin_options").Slot, options)
	b.PrependUOffsetTSlot(d.MustField("custom_options").Slot, custom)
	b.PrependInt8Slot(d.MustField("custom_options_format").Slot, o.CustomOptionsFormat, 0)
	return b.EndObject()
}

func (c *OperatorCodeT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	var custom flatbuf.UOffsetT
	if c.CustomCode != "" {
		custom = b.CreateString(c.CustomCode)
	}

	d := registry.MustLookup(TypeOperatorCode)
	b.StartObject(d.NumSlots())
	b.PrependInt8Slot(d.MustField("builtin_code").Slot, int8(c.BuiltinCode), 0)
	b.PrependUOffsetTSlot(d.MustField("custom_code").Slot, custom)
	b.PrependInt32Slot(d.MustField("version").Slot, c.Version, 1)
	return b.EndObject()
}

func (bt *BufferT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	var data flatbuf.UOffsetT
	if len(bt.Data) > 0 {
		data = b.CreateByteVector(bt.Data)
	}

	d := registry.MustLookup(TypeBuffer)
	b.StartObject(d.NumSlots())
	b.PrependUOffsetTSlot(d.MustField("data").Slot, data)
	return b.EndObject()
}

func (md *MetadataT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	var name flatbuf.UOffsetT
	if md.Name != "" {
		name = b.CreateString(md.Name)
	}

	d := registry.MustLookup(TypeMetadata)
	b.StartObject(d.NumSlots())
	b.PrependUOffsetTSlot(d.MustField("name").Slot, name)
	b.PrependUint32Slot(d.MustField("buffer").Slot, md.Buffer, 0)
	return b.EndObject()
}

// Conv2DOptionsT builds a Conv2DOptions variant.
type Conv2DOptionsT struct {
	Padding         Padding
	StrideW         int32
	StrideH         int32
	FusedActivation ActivationFunctionType
	DilationW       int32
	DilationH       int32
}

// OptionsType implements BuiltinOptionsT.
func (o *Conv2DOptionsT) OptionsType() BuiltinOptionsType { return BuiltinOptionsConv2D }

func (o *Conv2DOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeConv2DOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt8Slot(d.MustField("padding").Slot, int8(o.Padding), 0)
	b.PrependInt32Slot(d.MustField("stride_w").Slot, o.StrideW, 0)
	b.PrependInt32Slot(d.MustField("stride_h").Slot, o.StrideH, 0)
	b.PrependInt8Slot(d.MustField("fused_activation_function").Slot, int8(o.FusedActivation), 0)
	b.PrependInt32Slot(d.MustField("dilation_w_factor").Slot, o.DilationW, 1)
	b.PrependInt32Slot(d.MustField("dilation_h_factor").Slot, o.DilationH, 1)
	return b.EndObject()
}

// FullyConnectedOptionsT builds a FullyConnectedOptions variant.
type FullyConnectedOptionsT struct {
	FusedActivation          ActivationFunctionType
	WeightsFormat            int8
	KeepNumDims              bool
	AsymmetricQuantizeInputs bool
}

// OptionsType implements BuiltinOptionsT.
func (o *FullyConnectedOptionsT) OptionsType() BuiltinOptionsType {
	return BuiltinOptionsFullyConnected
}

func (o *FullyConnectedOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeFullyConnectedOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt8Slot(d.MustField("fused_activation_function").Slot, int8(o.FusedActivation), 0)
	b.PrependInt8Slot(d.MustField("weights_format").Slot, o.WeightsFormat, 0)
	b.PrependBoolSlot(d.MustField("keep_num_dims").Slot, o.KeepNumDims, false)
	b.PrependBoolSlot(d.MustField("asymmetric_quantize_inputs").Slot, o.AsymmetricQuantizeInputs, false)
	return b.EndObject()
}

// MulOptionsT builds a MulOptions variant.
type MulOptionsT struct {
	FusedActivation ActivationFunctionType
}

// OptionsType implements BuiltinOptionsT.
func (o *MulOptionsT) OptionsType() BuiltinOptionsType { return BuiltinOptionsMul }

func (o *MulOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeMulOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt8Slot(d.MustField("fused_activation_function").Slot, int8(o.FusedActivation), 0)
	return b.EndObject()
}

// SubOptionsT builds a SubOptions variant.
type SubOptionsT struct {
	FusedActivation ActivationFunctionType
}

// OptionsType implements BuiltinOptionsT.
func (o *SubOptionsT) OptionsType() BuiltinOptionsType { return BuiltinOptionsSub }

func (o *SubOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeSubOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt8Slot(d.MustField("fused_activation_function").Slot, int8(o.FusedActivation), 0)
	return b.EndObject()
}

// SqueezeOptionsT builds a SqueezeOptions variant.
type SqueezeOptionsT struct {
	SqueezeDims []int32
}

// OptionsType implements BuiltinOptionsT.
func (o *SqueezeOptionsT) OptionsType() BuiltinOptionsType { return BuiltinOptionsSqueeze }

func (o *SqueezeOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	dims := int32Vector(b, o.SqueezeDims)
	d := registry.MustLookup(TypeSqueezeOptions)
	b.StartObject(d.NumSlots())
	b.PrependUOffsetTSlot(d.MustField("squeeze_dims").Slot, dims)
	return b.EndObject()
}

// StridedSliceOptionsT builds a StridedSliceOptions variant.
type StridedSliceOptionsT struct {
	BeginMask      int32
	EndMask        int32
	EllipsisMask   int32
	NewAxisMask    int32
	ShrinkAxisMask int32
}

// OptionsType implements BuiltinOptionsT.
func (o *StridedSliceOptionsT) OptionsType() BuiltinOptionsType {
	return BuiltinOptionsStridedSlice
}

func (o *StridedSliceOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeStridedSliceOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt32Slot(d.MustField("begin_mask").Slot, o.BeginMask, 0)
	b.PrependInt32Slot(d.MustField("end_mask").Slot, o.EndMask, 0)
	b.PrependInt32Slot(d.MustField("ellipsis_mask").Slot, o.EllipsisMask, 0)
	b.PrependInt32Slot(d.MustField("new_axis_mask").Slot, o.NewAxisMask, 0)
	b.PrependInt32Slot(d.MustField("shrink_axis_mask").Slot, o.ShrinkAxisMask, 0)
	return b.EndObject()
}

// ResizeBilinearOptionsT builds a ResizeBilinearOptions variant.
type ResizeBilinearOptionsT struct {
	AlignCorners     bool
	HalfPixelCenters bool
}

// OptionsType implements BuiltinOptionsT.
func (o *ResizeBilinearOptionsT) OptionsType() BuiltinOptionsType {
	return BuiltinOptionsResizeBilinear
}

func (o *ResizeBilinearOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeResizeBilinearOptions)
	b.StartObject(d.NumSlots())
	b.PrependBoolSlot(d.MustField("align_corners").Slot, o.AlignCorners, false)
	b.PrependBoolSlot(d.MustField("half_pixel_centers").Slot, o.HalfPixelCenters, false)
	return b.EndObject()
}

// GatherOptionsT builds a GatherOptions variant.
type GatherOptionsT struct {
	Axis      int32
	BatchDims int32
}

// OptionsType implements BuiltinOptionsT.
func (o *GatherOptionsT) OptionsType() BuiltinOptionsType { return BuiltinOptionsGather }

func (o *GatherOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeGatherOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt32Slot(d.MustField("axis").Slot, o.Axis, 0)
	b.PrependInt32Slot(d.MustField("batch_dims").Slot, o.BatchDims, 0)
	return b.EndObject()
}

// BCQGatherOptionsT builds a BCQGatherOptions variant.
type BCQGatherOptionsT struct {
	InputHiddenSize int32
	Axis            int32
}

// OptionsType implements BuiltinOptionsT.
func (o *BCQGatherOptionsT) OptionsType() BuiltinOptionsType { return BuiltinOptionsBCQGather }

func (o *BCQGatherOptionsT) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	d := registry.MustLookup(TypeBCQGatherOptions)
	b.StartObject(d.NumSlots())
	b.PrependInt32Slot(d.MustField("input_hidden_size").Slot, o.InputHiddenSize, 0)
	b.PrependInt32Slot(d.MustField("axis").Slot, o.Axis, 0)
	return b.EndObject()
}

func int32Vector(b *flatbuf.Builder, vals []int32) flatbuf.UOffsetT {
	if len(vals) == 0 {
		return 0
	}
	b.StartVector(4, len(vals), 4)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependInt32(vals[i])
	}
	return b.EndVector(len(vals))
}

func int64Vector(b *flatbuf.Builder, vals []int64) flatbuf.UOffsetT {
	if len(vals) == 0 {
		return 0
	}
	b.StartVector(8, len(vals), 8)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependInt64(vals[i])
	}
	return b.EndVector(len(vals))
}

func float32Vector(b *flatbuf.Builder, vals []float32) flatbuf.UOffsetT {
	if len(vals) == 0 {
		return 0
	}
	b.StartVector(4, len(vals), 4)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependFloat32(vals[i])
	}
	return b.EndVector(len(vals))
}

func offsetVector(b *flatbuf.Builder, offs []flatbuf.UOffsetT) flatbuf.UOffsetT {
	if len(offs) == 0 {
		return 0
	}
	b.StartVector(flatbuf.SizeUOffsetT, len(offs), flatbuf.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}
