package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelbuf/flatbuf"
	"github.com/hupe1980/modelbuf/verify"
)

// testModel is a small but representative model: one graph, three tensors,
// a builtin conv and a custom op, quantization on one tensor, and metadata.
func testModel() *ModelT {
	return &ModelT{
		Version:     3,
		Description: "unit test model",
		OperatorCodes: []*OperatorCodeT{
			{BuiltinCode: OpConv2D, Version: 2},
			{BuiltinCode: OpCustom, CustomCode: "MyOp", Version: 1},
		},
		Buffers: []*BufferT{
			{}, // index 0 stays empty by convention
			{Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
		SubGraphs: []*SubGraphT{
			{
				Name: "main",
				Tensors: []*TensorT{
					{Name: "input", Shape: []int32{1, 4}, Type: TensorFloat32},
					{
						Name:   "weights",
						Shape:  []int32{2, 4},
						Type:   TensorUint8,
						Buffer: 1,
						Quantization: &QuantizationT{
							Scale:              []float32{0.5},
							ZeroPoint:          []int64{128},
							QuantizedDimension: 0,
						},
					},
					{Name: "output", Shape: []int32{1, 2}, Type: TensorFloat32, IsVariable: true},
				},
				Inputs:  []int32{0},
				Outputs: []int32{2},
				Operators: []*OperatorT{
					{
						OpcodeIndex: 0,
						Inputs:      []int32{0, 1, -1},
						Outputs:     []int32{2},
						BuiltinOptions: &Conv2DOptionsT{
							Padding:         PaddingValid,
							StrideW:         2,
							StrideH:         2,
							FusedActivation: ActRelu6,
							DilationW:       1,
							DilationH:       1,
						},
					},
					{
						OpcodeIndex:   1,
						Inputs:        []int32{2},
						Outputs:       []int32{2},
						CustomOptions: []byte{0xCA, 0xFE},
					},
				},
			},
		},
		Metadata: []*MetadataT{
			{Name: "min_runtime_version", Buffer: 1},
		},
	}
}

func buildTestModel(t *testing.T) []byte {
	t.Helper()

	b := flatbuf.NewBuilder(1024)
	buf, err := testModel().Build(b)
	require.NoError(t, err)
	return buf
}

func TestModelBuildVerifies(t *testing.T) {
	buf := buildTestModel(t)

	require.True(t, flatbuf.HasIdentifier(buf, FileIdentifier))
	require.NoError(t, verify.Verify(Registry(), TypeModel, buf,
		verify.WithIdentifier(FileIdentifier)))
}

func TestModelViews(t *testing.T) {
	buf := buildTestModel(t)

	m, err := RootModel(buf)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), m.Version())
	assert.Equal(t, "unit test model", m.Description())

	require.Equal(t, 2, m.NumOperatorCodes())
	assert.Equal(t, OpConv2D, m.OperatorCode(0).BuiltinCode())
	assert.Equal(t, int32(2), m.OperatorCode(0).Version())
	assert.Equal(t, "MyOp", m.OperatorCode(1).CustomCode())
	assert.Equal(t, int32(1), m.OperatorCode(1).Version(), "version defaults to 1")

	require.Equal(t, 2, m.NumBuffers())
	assert.Nil(t, m.Buffer(0).Data())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, m.Buffer(1).Data())

	require.Equal(t, 1, m.NumSubGraphs())
	g := m.SubGraph(0)
	assert.Equal(t, "main", g.Name())
	assert.Equal(t, []int32{0}, g.Inputs())
	assert.Equal(t, []int32{2}, g.Outputs())

	require.Equal(t, 3, g.NumTensors())
	weights := g.Tensor(1)
	assert.Equal(t, "weights", weights.Name())
	assert.Equal(t, []int32{2, 4}, weights.Shape())
	assert.Equal(t, TensorUint8, weights.Type())
	assert.Equal(t, uint32(1), weights.BufferIndex())

	q, ok := weights.Quantization()
	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, q.Scale())
	assert.Equal(t, []int64{128}, q.ZeroPoint())

	_, ok = g.Tensor(0).Quantization()
	assert.False(t, ok)
	assert.True(t, g.Tensor(2).IsVariable())

	require.Equal(t, 2, g.NumOperators())

	conv := g.Operator(0)
	assert.Equal(t, uint32(0), conv.OpcodeIndex())
	assert.Equal(t, []int32{0, 1, -1}, conv.Inputs())
	require.Equal(t, BuiltinOptionsConv2D, conv.BuiltinOptionsType())
	v, ok := conv.BuiltinOptions()
	require.True(t, ok)
	opts := AsConv2DOptions(v)
	assert.Equal(t, PaddingValid, opts.Padding())
	assert.Equal(t, int32(2), opts.StrideW())
	assert.Equal(t, ActRelu6, opts.FusedActivation())
	assert.Equal(t, int32(1), opts.DilationW(), "dilation defaults to 1")

	custom := g.Operator(1)
	assert.Equal(t, BuiltinOptionsNone, custom.BuiltinOptionsType())
	_, ok = custom.BuiltinOptions()
	assert.False(t, ok)
	assert.Equal(t, []byte{0xCA, 0xFE}, custom.CustomOptions())

	require.Equal(t, 1, m.NumMetadata())
	assert.Equal(t, "min_runtime_version", m.Metadata(0).Name())
	assert.Equal(t, uint32(1), m.Metadata(0).BufferIndex())
}

func TestModelRoundTrip(t *testing.T) {
	want := testModel()

	b := flatbuf.NewBuilder(1024)
	buf, err := want.Build(b)
	require.NoError(t, err)

	m, err := RootModel(buf)
	require.NoError(t, err)

	assert.Equal(t, want, m.T())
}

func TestModelBuilderReuse(t *testing.T) {
	b := flatbuf.NewBuilder(1024)

	first, err := testModel().Build(b)
	require.NoError(t, err)
	firstCopy := append([]byte(nil), first...)

	second, err := testModel().Build(b)
	require.NoError(t, err)

	assert.Equal(t, firstCopy, second)
}

func TestModelReadsOlderBuffer(t *testing.T) {
	// Simulate a writer that predates the name, quantization, and
	// is_variable tensor fields: only shape and type are written.
	b := flatbuf.NewBuilder(256)
	tensorDesc := registry.MustLookup(TypeTensor)

	b.StartVector(4, 2, 4)
	b.PrependInt32(4)
	b.PrependInt32(1)
	shape := b.EndVector(2)

	b.StartObject(2)
	b.PrependUOffsetTSlot(tensorDesc.MustField("shape").Slot, shape)
	b.PrependInt8Slot(tensorDesc.MustField("type").Slot, int8(TensorInt32), 0)
	tensor := b.EndObject()

	b.StartVector(flatbuf.SizeUOffsetT, 1, flatbuf.SizeUOffsetT)
	b.PrependUOffsetT(tensor)
	tensors := b.EndVector(1)

	subDesc := registry.MustLookup(TypeSubGraph)
	b.StartObject(1)
	b.PrependUOffsetTSlot(subDesc.MustField("tensors").Slot, tensors)
	sub := b.EndObject()

	b.StartVector(flatbuf.SizeUOffsetT, 1, flatbuf.SizeUOffsetT)
	b.PrependUOffsetT(sub)
	subs := b.EndVector(1)

	modelDesc := registry.MustLookup(TypeModel)
	b.StartObject(3)
	b.PrependUint32Slot(modelDesc.MustField("version").Slot, 3, 0)
	b.PrependUOffsetTSlot(modelDesc.MustField("subgraphs").Slot, subs)
	root := b.EndObject()
	b.FinishWithIdentifier(root, FileIdentifier)
	buf := b.FinishedBytes()

	require.NoError(t, verify.Verify(Registry(), TypeModel, buf))

	m, err := RootModel(buf)
	require.NoError(t, err)

	tensorView := m.SubGraph(0).Tensor(0)
	assert.Equal(t, []int32{1, 4}, tensorView.Shape())
	assert.Equal(t, TensorInt32, tensorView.Type())

	// Fields the old writer never knew about come back as defaults.
	assert.Equal(t, "", tensorView.Name())
	assert.Equal(t, uint32(0), tensorView.BufferIndex())
	assert.False(t, tensorView.IsVariable())
	_, ok := tensorView.Quantization()
	assert.False(t, ok)
	assert.Equal(t, 0, m.NumMetadata())
	assert.Equal(t, "", m.Description())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "FLOAT32", TensorFloat32.String())
	assert.Equal(t, "CONV_2D", OpConv2D.String())
	assert.Equal(t, "RELU6", ActRelu6.String())
	assert.Equal(t, "VALID", PaddingValid.String())
	assert.Equal(t, "Conv2DOptions", BuiltinOptionsConv2D.String())
	assert.Equal(t, "BuiltinOperator(100)", BuiltinOperator(100).String())
	assert.Equal(t, 4, TensorFloat32.ByteWidth())
	assert.Equal(t, 0, TensorString.ByteWidth())
}
