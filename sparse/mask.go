package sparse

import (
	"math"
	"sort"
)

// ParamMask owns the pruning mask for one (layer, parameter) target. The
// parameter buffer is shared with the framework; the mask buffer is owned
// exclusively and must be released with Release when the modifier is done
// (masks are full-size parallel buffers, not something to leave around).
//
// While enabled, every masked position of the parameter is forced back to
// exactly zero on Apply and on every mask recompute.
type ParamMask struct {
	layer   string
	param   []float32
	mask    []bool
	order   []int // scratch index permutation, reused across recomputes
	name    string
	enabled bool
}

// NewParamMask creates a disabled mask over the given live parameter buffer.
func NewParamMask(layer, param string, data []float32) *ParamMask {
	return &ParamMask{
		layer: layer,
		name:  param,
		param: data,
		mask:  make([]bool, len(data)),
	}
}

// LayerName returns the name of the layer this mask belongs to.
func (m *ParamMask) LayerName() string { return m.layer }

// ParamName returns the name of the masked parameter.
func (m *ParamMask) ParamName() string { return m.name }

// Enabled reports whether Apply currently enforces the mask.
func (m *ParamMask) Enabled() bool { return m.enabled }

// SetEnabled toggles mask enforcement. Disabling does not clear the stored
// mask; re-enabling resumes with the mask as last computed.
func (m *ParamMask) SetEnabled(enabled bool) { m.enabled = enabled }

// Mask returns the mask buffer. True marks a pruned (zeroed) position.
func (m *ParamMask) Mask() []bool { return m.mask }

// MaskedCount returns the number of currently masked positions.
func (m *ParamMask) MaskedCount() int {
	count := 0
	for _, masked := range m.mask {
		if masked {
			count++
		}
	}
	return count
}

// SetSparsity recomputes the mask so the round(target * N) elements of
// smallest absolute magnitude are masked. Ties at the magnitude boundary
// break by ascending element index, so the same weights always produce the
// same mask and a higher target always masks a superset of a lower one.
// While enabled, the new mask is applied immediately.
func (m *ParamMask) SetSparsity(target float64) {
	if m.param == nil {
		return
	}

	n := len(m.param)
	k := maskCount(target, n)

	if m.order == nil {
		m.order = make([]int, n)
	}
	for i := range m.order {
		m.order[i] = i
	}
	sort.Slice(m.order, func(a, b int) bool {
		ia, ib := m.order[a], m.order[b]
		ma := math.Abs(float64(m.param[ia]))
		mb := math.Abs(float64(m.param[ib]))
		if ma != mb {
			return ma < mb
		}
		return ia < ib
	})

	for i := range m.mask {
		m.mask[i] = false
	}
	for i := 0; i < k; i++ {
		m.mask[m.order[i]] = true
	}

	if m.enabled {
		m.applyMask()
	}
}

// Apply zeroes every masked parameter element in place. Gradients and any
// other framework state are untouched. No-op while disabled or released.
func (m *ParamMask) Apply() {
	if !m.enabled || m.param == nil {
		return
	}
	m.applyMask()
}

func (m *ParamMask) applyMask() {
	for i, masked := range m.mask {
		if masked {
			m.param[i] = 0
		}
	}
}

// Release drops the mask buffers and the parameter reference. The mask is
// unusable afterwards; SetSparsity and Apply become no-ops.
func (m *ParamMask) Release() {
	m.param = nil
	m.mask = nil
	m.order = nil
	m.enabled = false
}

// SetGlobalSparsity recomputes all masks jointly: elements of every target
// are ranked together by absolute magnitude and the round(target * total)
// smallest across the union are masked, wherever they live. Ties break by
// (magnitude, mask position in the slice, element index). Enabled masks are
// applied immediately, as in SetSparsity.
func SetGlobalSparsity(masks []*ParamMask, target float64) {
	total := 0
	for _, m := range masks {
		total += len(m.param)
	}
	k := maskCount(target, total)

	type ref struct {
		mask int
		elem int
	}
	refs := make([]ref, 0, total)
	for mi, m := range masks {
		for ei := range m.param {
			refs = append(refs, ref{mask: mi, elem: ei})
		}
	}
	sort.Slice(refs, func(a, b int) bool {
		ra, rb := refs[a], refs[b]
		ma := math.Abs(float64(masks[ra.mask].param[ra.elem]))
		mb := math.Abs(float64(masks[rb.mask].param[rb.elem]))
		if ma != mb {
			return ma < mb
		}
		if ra.mask != rb.mask {
			return ra.mask < rb.mask
		}
		return ra.elem < rb.elem
	})

	for _, m := range masks {
		for i := range m.mask {
			m.mask[i] = false
		}
	}
	for i := 0; i < k; i++ {
		masks[refs[i].mask].mask[refs[i].elem] = true
	}

	for _, m := range masks {
		if m.enabled {
			m.applyMask()
		}
	}
}

// maskCount converts a sparsity fraction to an element count, clamped to
// the valid range.
func maskCount(target float64, n int) int {
	k := int(math.Round(target * float64(n)))
	if k < 0 {
		k = 0
	}
	if k > n {
		k = n
	}
	return k
}
