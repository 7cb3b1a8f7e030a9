// Package loomnet adapts loom grid networks to the sparse.Model interface,
// so sparsity modifiers can prune loom layers in place.
//
// Every layer of the network's flat grid sequence becomes one terminal layer
// named layer<idx>_<type> (layer0_dense, layer3_lstm, ...), the indexing
// loom's telemetry uses. Parameter slices are exposed by reference: masks
// write straight into the live network, and loom optimizers mutate the same
// buffers in place.
package loomnet

import (
	"fmt"

	"github.com/openfluke/loom/nn"

	"github.com/openfluke/shear/sparse"
)

type network struct {
	net    *nn.Network
	layers map[string]sparse.Layer
}

type layer struct {
	params []sparse.Param
}

func (l *layer) Params() []sparse.Param { return l.params }

// Wrap exposes net as a sparse.Model. The wrapper indexes the layer grid
// once; layer configs added or swapped after Wrap are not visible.
func Wrap(net *nn.Network) sparse.Model {
	layers := make(map[string]sparse.Layer, net.TotalLayers())
	for i := 0; i < net.TotalLayers(); i++ {
		cfg := &net.Layers[i]
		name := fmt.Sprintf("layer%d_%s", i, layerTypeName(cfg.Type))
		layers[name] = &layer{params: layerParams(cfg)}
	}
	return &network{net: net, layers: layers}
}

func (n *network) TerminalLayers() map[string]sparse.Layer {
	out := make(map[string]sparse.Layer, len(n.layers))
	for name, l := range n.layers {
		out[name] = l
	}
	return out
}

func (n *network) Layer(name string) (sparse.Layer, error) {
	l, ok := n.layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sparse.ErrLayerNotFound, name)
	}
	return l, nil
}

// layerParams maps one loom layer config onto named parameter buffers. Only
// populated buffers are exposed; layers without parameters (softmax,
// unconfigured cells) expose none and get skipped by wildcard selections.
func layerParams(cfg *nn.LayerConfig) []sparse.Param {
	var params []sparse.Param
	add := func(name string, data []float32) {
		if len(data) > 0 {
			params = append(params, sparse.Param{Name: name, Data: data})
		}
	}

	switch cfg.Type {
	case nn.LayerDense, nn.LayerConv2D:
		add("weight", cfg.Kernel)
		add("bias", cfg.Bias)
	case nn.LayerRNN:
		add("weight_ih", cfg.WeightIH)
		add("weight_hh", cfg.WeightHH)
		add("bias_h", cfg.BiasH)
	case nn.LayerLSTM:
		add("weight_ih_i", cfg.WeightIH_i)
		add("weight_hh_i", cfg.WeightHH_i)
		add("bias_h_i", cfg.BiasH_i)
		add("weight_ih_f", cfg.WeightIH_f)
		add("weight_hh_f", cfg.WeightHH_f)
		add("bias_h_f", cfg.BiasH_f)
		add("weight_ih_g", cfg.WeightIH_g)
		add("weight_hh_g", cfg.WeightHH_g)
		add("bias_h_g", cfg.BiasH_g)
		add("weight_ih_o", cfg.WeightIH_o)
		add("weight_hh_o", cfg.WeightHH_o)
		add("bias_h_o", cfg.BiasH_o)
	case nn.LayerMultiHeadAttention:
		add("q_weight", cfg.QWeights)
		add("k_weight", cfg.KWeights)
		add("v_weight", cfg.VWeights)
		add("out_weight", cfg.OutputWeight)
		add("q_bias", cfg.QBias)
		add("k_bias", cfg.KBias)
		add("v_bias", cfg.VBias)
		add("out_bias", cfg.OutputBias)
	}
	return params
}

func layerTypeName(lt nn.LayerType) string {
	switch lt {
	case nn.LayerDense:
		return "dense"
	case nn.LayerConv2D:
		return "conv2d"
	case nn.LayerMultiHeadAttention:
		return "multi_head_attention"
	case nn.LayerRNN:
		return "rnn"
	case nn.LayerLSTM:
		return "lstm"
	case nn.LayerSoftmax:
		return "softmax"
	default:
		return "unknown"
	}
}
