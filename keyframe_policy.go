package server

// keyframeBurst describes why an off-cadence keyframe was forced.
type keyframeBurst struct {
	Patches int
	Reasons []PatchKind
}

func (b keyframeBurst) reasonStrings() []string {
	if len(b.Reasons) == 0 {
		return nil
	}
	out := make([]string, len(b.Reasons))
	for i, kind := range b.Reasons {
		out[i] = string(kind)
	}
	return out
}

// keyframePolicy watches the journal for patch bursts. A tick that produces
// an unusually large batch arms the policy, and the world answers by cutting
// a keyframe early so resyncing clients never replay the burst patch by
// patch.
type keyframePolicy struct {
	threshold int
	pending   bool
	patches   int
	reasons   []PatchKind
}

func newKeyframePolicy(threshold int) *keyframePolicy {
	if threshold <= 0 {
		threshold = keyframeBurstThreshold
	}
	return &keyframePolicy{threshold: threshold}
}

// observe inspects one tick's pending patches and arms the policy when the
// batch crosses the threshold. Reasons keep the first few distinct kinds.
func (p *keyframePolicy) observe(pending []Patch) {
	if p == nil || len(pending) < p.threshold {
		return
	}
	p.pending = true
	p.patches = len(pending)
	p.reasons = p.reasons[:0]
	for _, patch := range pending {
		if len(p.reasons) >= keyframeReasonLimit {
			break
		}
		if containsKind(p.reasons, patch.Kind) {
			continue
		}
		p.reasons = append(p.reasons, patch.Kind)
	}
}

// consume returns the armed burst, if any, and disarms the policy.
func (p *keyframePolicy) consume() (keyframeBurst, bool) {
	if p == nil || !p.pending {
		return keyframeBurst{}, false
	}
	burst := keyframeBurst{
		Patches: p.patches,
		Reasons: append([]PatchKind(nil), p.reasons...),
	}
	p.pending = false
	p.patches = 0
	p.reasons = p.reasons[:0]
	return burst, true
}

func containsKind(kinds []PatchKind, kind PatchKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
