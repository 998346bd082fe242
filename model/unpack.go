package model

// T materializes the whole model into a mutable object tree. Everything is
// copied out of the buffer, so the tree stays valid after the buffer is
// released.
func (m Model) T() *ModelT {
	t := &ModelT{
		Version:        m.Version(),
		Description:    m.Description(),
		MetadataBuffer: m.MetadataBuffer(),
	}
	for i := 0; i < m.NumOperatorCodes(); i++ {
		t.OperatorCodes = append(t.OperatorCodes, m.OperatorCode(i).T())
	}
	for i := 0; i < m.NumSubGraphs(); i++ {
		t.SubGraphs = append(t.SubGraphs, m.SubGraph(i).T())
	}
	for i := 0; i < m.NumBuffers(); i++ {
		t.Buffers = append(t.Buffers, m.Buffer(i).T())
	}
	for i := 0; i < m.NumMetadata(); i++ {
		t.Metadata = append(t.Metadata, m.Metadata(i).T())
	}
	return t
}

// T materializes the subgraph.
func (g SubGraph) T() *SubGraphT {
	t := &SubGraphT{
		Inputs:  g.Inputs(),
		Outputs: g.Outputs(),
		Name:    g.Name(),
	}
	for i := 0; i < g.NumTensors(); i++ {
		t.Tensors = append(t.Tensors, g.Tensor(i).T())
	}
	for i := 0; i < g.NumOperators(); i++ {
		t.Operators = append(t.Operators, g.Operator(i).T())
	}
	return t
}

// T materializes the tensor declaration.
func (t Tensor) T() *TensorT {
	out := &TensorT{
		Shape:      t.Shape(),
		Type:       t.Type(),
		Buffer:     t.BufferIndex(),
		Name:       t.Name(),
		IsVariable: t.IsVariable(),
	}
	if q, ok := t.Quantization(); ok {
		out.Quantization = q.T()
	}
	return out
}

// T materializes the quantization parameters.
func (q Quantization) T() *QuantizationT {
	return &QuantizationT{
		Min:                q.Min(),
		Max:                q.Max(),
		Scale:              q.Scale(),
		ZeroPoint:          q.ZeroPoint(),
		QuantizedDimension: q.QuantizedDimension(),
	}
}

// T materializes the operator, including its options variant.
func (o Operator) T() *OperatorT {
	t := &OperatorT{
		OpcodeIndex:         o.OpcodeIndex(),
		Inputs:              o.Inputs(),
		Outputs:             o.Outputs(),
		CustomOptionsFormat: o.v.Int8("custom_options_format"),
	}
	if data := o.CustomOptions(); len(data) > 0 {
		t.CustomOptions = append([]byte(nil), data...)
	}
	if v, ok := o.BuiltinOptions(); ok {
		switch o.BuiltinOptionsType() {
		case BuiltinOptionsConv2D:
			opt := AsConv2DOptions(v)
			t.BuiltinOptions = &Conv2DOptionsT{
				Padding:         opt.Padding(),
				StrideW:         opt.StrideW(),
				StrideH:         opt.StrideH(),
				FusedActivation: opt.FusedActivation(),
				DilationW:       opt.DilationW(),
				DilationH:       opt.DilationH(),
			}
		case BuiltinOptionsFullyConnected:
			opt := AsFullyConnectedOptions(v)
			t.BuiltinOptions = &FullyConnectedOptionsT{
				FusedActivation:          opt.FusedActivation(),
				WeightsFormat:            opt.WeightsFormat(),
				KeepNumDims:              opt.KeepNumDims(),
				AsymmetricQuantizeInputs: opt.AsymmetricQuantizeInputs(),
			}
		case BuiltinOptionsResizeBilinear:
			opt := AsResizeBilinearOptions(v)
			t.BuiltinOptions = &ResizeBilinearOptionsT{
				AlignCorners:     opt.AlignCorners(),
				HalfPixelCenters: opt.HalfPixelCenters(),
			}
		case BuiltinOptionsMul:
			t.BuiltinOptions = &MulOptionsT{FusedActivation: AsMulOptions(v).FusedActivation()}
		case BuiltinOptionsGather:
			opt := AsGatherOptions(v)
			t.BuiltinOptions = &GatherOptionsT{Axis: opt.Axis(), BatchDims: opt.BatchDims()}
		case BuiltinOptionsSub:
			t.BuiltinOptions = &SubOptionsT{FusedActivation: AsSubOptions(v).FusedActivation()}
		case BuiltinOptionsSqueeze:
			t.BuiltinOptions = &SqueezeOptionsT{SqueezeDims: AsSqueezeOptions(v).SqueezeDims()}
		case BuiltinOptionsStridedSlice:
			opt := AsStridedSliceOptions(v)
			t.BuiltinOptions = &StridedSliceOptionsT{
				BeginMask:      opt.BeginMask(),
				EndMask:        opt.EndMask(),
				EllipsisMask:   opt.EllipsisMask(),
				NewAxisMask:    opt.NewAxisMask(),
				ShrinkAxisMask: opt.ShrinkAxisMask(),
			}
		case BuiltinOptionsBCQGather:
			opt := AsBCQGatherOptions(v)
			t.BuiltinOptions = &BCQGatherOptionsT{
				InputHiddenSize: opt.InputHiddenSize(),
				Axis:            opt.Axis(),
			}
		}
	}
	return t
}

// T materializes the operator code.
func (c OperatorCode) T() *OperatorCodeT {
	return &OperatorCodeT{
		BuiltinCode: c.BuiltinCode(),
		CustomCode:  c.CustomCode(),
		Version:     c.Version(),
	}
}

// T materializes the buffer entry, copying its data.
func (b Buffer) T() *BufferT {
	t := &BufferT{}
	if data := b.Data(); len(data) > 0 {
		t.Data = append([]byte(nil), data...)
	}
	return t
}

// T materializes the metadata entry.
func (md Metadata) T() *MetadataT {
	return &MetadataT{Name: md.Name(), Buffer: md.BufferIndex()}
}
