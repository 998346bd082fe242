package model

import "fmt"

// TensorType is the element type of a tensor's flat data.
type TensorType int8

const (
	TensorFloat32 TensorType = iota
	TensorFloat16
	TensorInt32
	TensorUint8
	TensorInt64
	TensorString
	TensorBool
	TensorInt16
	TensorComplex64
	TensorInt8
)

var tensorTypeNames = map[TensorType]string{
	TensorFloat32:   "FLOAT32",
	TensorFloat16:   "FLOAT16",
	TensorInt32:     "INT32",
	TensorUint8:     "UINT8",
	TensorInt64:     "INT64",
	TensorString:    "STRING",
	TensorBool:      "BOOL",
	TensorInt16:     "INT16",
	TensorComplex64: "COMPLEX64",
	TensorInt8:      "INT8",
}

func (t TensorType) String() string {
	if s, ok := tensorTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TensorType(%d)", int8(t))
}

// ByteWidth returns the size of one element, or 0 for variable-width types.
func (t TensorType) ByteWidth() int {
	switch t {
	case TensorBool, TensorUint8, TensorInt8:
		return 1
	case TensorFloat16, TensorInt16:
		return 2
	case TensorFloat32, TensorInt32:
		return 4
	case TensorInt64, TensorComplex64:
		return 8
	default:
		return 0
	}
}

// BuiltinOperator identifies an operator implementation the runtime ships.
type BuiltinOperator int8

const (
	OpAdd            BuiltinOperator = 0
	OpConv2D         BuiltinOperator = 3
	OpFullyConnected BuiltinOperator = 9
	OpMul            BuiltinOperator = 18
	OpResizeBilinear BuiltinOperator = 23
	OpCustom         BuiltinOperator = 32
	OpGather         BuiltinOperator = 36
	OpSub            BuiltinOperator = 41
	OpSqueeze        BuiltinOperator = 43
	OpStridedSlice   BuiltinOperator = 45
)

var builtinOperatorNames = map[BuiltinOperator]string{
	OpAdd:            "ADD",
	OpConv2D:         "CONV_2D",
	OpFullyConnected: "FULLY_CONNECTED",
	OpMul:            "MUL",
	OpResizeBilinear: "RESIZE_BILINEAR",
	OpCustom:         "CUSTOM",
	OpGather:         "GATHER",
	OpSub:            "SUB",
	OpSqueeze:        "SQUEEZE",
	OpStridedSlice:   "STRIDED_SLICE",
}

func (o BuiltinOperator) String() string {
	if s, ok := builtinOperatorNames[o]; ok {
		return s
	}
	return fmt.Sprintf("BuiltinOperator(%d)", int8(o))
}

// ActivationFunctionType is the activation fused into an operator.
type ActivationFunctionType int8

const (
	ActNone ActivationFunctionType = iota
	ActRelu
	ActReluN1To1
	ActRelu6
	ActTanh
	ActSignBit
)

var activationNames = map[ActivationFunctionType]string{
	ActNone:      "NONE",
	ActRelu:      "RELU",
	ActReluN1To1: "RELU_N1_TO_1",
	ActRelu6:     "RELU6",
	ActTanh:      "TANH",
	ActSignBit:   "SIGN_BIT",
}

func (a ActivationFunctionType) String() string {
	if s, ok := activationNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ActivationFunctionType(%d)", int8(a))
}

// Padding selects the padding scheme of a windowed operator.
type Padding int8

const (
	PaddingSame Padding = iota
	PaddingValid
)

func (p Padding) String() string {
	switch p {
	case PaddingSame:
		return "SAME"
	case PaddingValid:
		return "VALID"
	default:
		return fmt.Sprintf("Padding(%d)", int8(p))
	}
}

// BuiltinOptionsType tags the builtin_options union of an operator. Zero
// means no options are stored.
type BuiltinOptionsType uint8

const (
	BuiltinOptionsNone           BuiltinOptionsType = 0
	BuiltinOptionsConv2D         BuiltinOptionsType = 1
	BuiltinOptionsFullyConnected BuiltinOptionsType = 8
	BuiltinOptionsResizeBilinear BuiltinOptionsType = 15
	BuiltinOptionsMul            BuiltinOptionsType = 21
	BuiltinOptionsGather         BuiltinOptionsType = 23
	BuiltinOptionsSub            BuiltinOptionsType = 28
	BuiltinOptionsSqueeze        BuiltinOptionsType = 30
	BuiltinOptionsStridedSlice   BuiltinOptionsType = 32
	BuiltinOptionsBCQGather      BuiltinOptionsType = 252
)

var builtinOptionsNames = map[BuiltinOptionsType]string{
	BuiltinOptionsNone:           "NONE",
	BuiltinOptionsConv2D:         "Conv2DOptions",
	BuiltinOptionsFullyConnected: "FullyConnectedOptions",
	BuiltinOptionsResizeBilinear: "ResizeBilinearOptions",
	BuiltinOptionsMul:            "MulOptions",
	BuiltinOptionsGather:         "GatherOptions",
	BuiltinOptionsSub:            "SubOptions",
	BuiltinOptionsSqueeze:        "SqueezeOptions",
	BuiltinOptionsStridedSlice:   "StridedSliceOptions",
	BuiltinOptionsBCQGather:      "BCQGatherOptions",
}

func (t BuiltinOptionsType) String() string {
	if s, ok := builtinOptionsNames[t]; ok {
		return s
	}
	return fmt.Sprintf("BuiltinOptionsType(%d)", uint8(t))
}
