// Package model defines the table layouts of a serialized neural-network
// model and typed views and builders over them.
//
// A model file is one finished buffer rooted at a Model table: operator
// codes, subgraphs of tensors and operators, and a flat buffer pool for
// tensor data. The layouts here mirror the on-disk slot assignments exactly;
// new fields only ever take fresh slots, which is what keeps old readers and
// old files working across schema revisions.
package model

import "github.com/hupe1980/modelbuf/schema"

// FileIdentifier is the 4-byte identifier written after the root offset of
// every model file.
const FileIdentifier = "TFL3"

// Table type names as registered. Exported so callers can verify or walk
// buffers against the same registry.
const (
	TypeModel                 = "Model"
	TypeSubGraph              = "SubGraph"
	TypeTensor                = "Tensor"
	TypeOperator              = "Operator"
	TypeOperatorCode          = "OperatorCode"
	TypeBuffer                = "Buffer"
	TypeQuantization          = "QuantizationParameters"
	TypeMetadata              = "Metadata"
	TypeConv2DOptions         = "Conv2DOptions"
	TypeFullyConnectedOptions = "FullyConnectedOptions"
	TypeMulOptions            = "MulOptions"
	TypeSubOptions            = "SubOptions"
	TypeSqueezeOptions        = "SqueezeOptions"
	TypeStridedSliceOptions   = "StridedSliceOptions"
	TypeResizeBilinearOptions = "ResizeBilinearOptions"
	TypeGatherOptions         = "GatherOptions"
	TypeBCQGatherOptions      = "BCQGatherOptions"
)

// builtinOptionsVariants maps builtin_options union tags to variant tables.
var builtinOptionsVariants = map[uint8]string{
	uint8(BuiltinOptionsConv2D):         TypeConv2DOptions,
	uint8(BuiltinOptionsFullyConnected): TypeFullyConnectedOptions,
	uint8(BuiltinOptionsResizeBilinear): TypeResizeBilinearOptions,
	uint8(BuiltinOptionsMul):            TypeMulOptions,
	uint8(BuiltinOptionsGather):         TypeGatherOptions,
	uint8(BuiltinOptionsSub):            TypeSubOptions,
	uint8(BuiltinOptionsSqueeze):        TypeSqueezeOptions,
	uint8(BuiltinOptionsStridedSlice):   TypeStridedSliceOptions,
	uint8(BuiltinOptionsBCQGather):      TypeBCQGatherOptions,
}

var registry = schema.NewRegistry()

// Registry returns the layout registry for model buffers. It is populated
// during package initialization and read-only afterwards.
func Registry() *schema.Registry { return registry }

func init() {
	registry.MustRegister(
		schema.MustTableDesc(TypeModel,
			schema.Uint32Field("version", 0, 0),
			schema.TableVectorField("operator_codes", 1, TypeOperatorCode),
			schema.TableVectorField("subgraphs", 2, TypeSubGraph),
			schema.StringField("description", 3),
			schema.TableVectorField("buffers", 4, TypeBuffer),
			schema.VectorField("metadata_buffer", 5, schema.KindInt32),
			schema.TableVectorField("metadata", 6, TypeMetadata),
		),
		schema.MustTableDesc(TypeSubGraph,
			schema.TableVectorField("tensors", 0, TypeTensor),
			schema.VectorField("inputs", 1, schema.KindInt32),
			schema.VectorField("outputs", 2, schema.KindInt32),
			schema.TableVectorField("operators", 3, TypeOperator),
			schema.StringField("name", 4),
		),
		schema.MustTableDesc(TypeTensor,
			schema.VectorField("shape", 0, schema.KindInt32),
			schema.Int8Field("type", 1, 0),
			schema.Uint32Field("buffer", 2, 0),
			schema.StringField("name", 3),
			schema.TableField("quantization", 4, TypeQuantization),
			schema.BoolField("is_variable", 5, false),
		),
		schema.MustTableDesc(TypeOperator,
			schema.Uint32Field("opcode_index", 0, 0),
			schema.VectorField("inputs", 1, schema.KindInt32),
			schema.VectorField("outputs", 2, schema.KindInt32),
			schema.UnionTypeField("builtin_options_type", 3),
			schema.UnionField("builtin_options", 4, builtinOptionsVariants),
			schema.VectorField("custom_options", 5, schema.KindUint8),
			schema.Int8Field("custom_options_format", 6, 0),
		),
		schema.MustTableDesc(TypeOperatorCode,
			schema.Int8Field("builtin_code", 0, 0),
			schema.StringField("custom_code", 1),
			schema.Int32Field("version", 2, 1),
		),
		schema.MustTableDesc(TypeBuffer,
			schema.VectorField("data", 0, schema.KindUint8),
		),
		schema.MustTableDesc(TypeQuantization,
			schema.VectorField("min", 0, schema.KindFloat32),
			schema.VectorField("max", 1, schema.KindFloat32),
			schema.VectorField("scale", 2, schema.KindFloat32),
			schema.VectorField("zero_point", 3, schema.KindInt64),
			schema.Int32Field("quantized_dimension", 6, 0),
		),
		schema.MustTableDesc(TypeMetadata,
			schema.StringField("name", 0),
			schema.Uint32Field("buffer", 1, 0),
		),
		schema.MustTableDesc(TypeConv2DOptions,
			schema.Int8Field("padding", 0, 0),
			schema.Int32Field("stride_w", 1, 0),
			schema.Int32Field("stride_h", 2, 0),
			schema.Int8Field("fused_activation_function", 3, 0),
			schema.Int32Field("dilation_w_factor", 4, 1),
			schema.Int32Field("dilation_h_factor", 5, 1),
		),
		schema.MustTableDesc(TypeFullyConnectedOptions,
			schema.Int8Field("fused_activation_function", 0, 0),
			schema.Int8Field("weights_format", 1, 0),
			schema.BoolField("keep_num_dims", 2, false),
			schema.BoolField("asymmetric_quantize_inputs", 3, false),
		),
		schema.MustTableDesc(TypeMulOptions,
			schema.Int8Field("fused_activation_function", 0, 0),
		),
		schema.MustTableDesc(TypeSubOptions,
			schema.Int8Field("fused_activation_function", 0, 0),
		),
		schema.MustTableDesc(TypeSqueezeOptions,
			schema.VectorField("squeeze_dims", 0, schema.KindInt32),
		),
		schema.MustTableDesc(TypeStridedSliceOptions,
			schema.Int32Field("begin_mask", 0, 0),
			schema.Int32Field("end_mask", 1, 0),
			schema.Int32Field("ellipsis_mask", 2, 0),
			schema.Int32Field("new_axis_mask", 3, 0),
			schema.Int32Field("shrink_axis_mask", 4, 0),
		),
		// Slots 0 and 1 carried explicit output sizes in early files and
		// stay reserved.
		schema.MustTableDesc(TypeResizeBilinearOptions,
			schema.BoolField("align_corners", 2, false),
			schema.BoolField("half_pixel_centers", 3, false),
		),
		schema.MustTableDesc(TypeGatherOptions,
			schema.Int32Field("axis", 0, 0),
			schema.Int32Field("batch_dims", 1, 0),
		),
		schema.MustTableDesc(TypeBCQGatherOptions,
			schema.Int32Field("input_hidden_size", 0, 0),
			schema.Int32Field("axis", 1, 0),
		),
	)
}
