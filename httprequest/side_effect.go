package httprequest

import "strconv"

// SideEffectFunc is a fire-and-forget callback run after a request resolved.
type SideEffectFunc func(status int, errObj *ChaynsErrorObject)

// SideEffects is either a single callback run for every request or a map of
// callbacks keyed by status or chayns error code.
type SideEffects struct {
	all   SideEffectFunc
	keyed *PatternMap[SideEffectFunc]
}

// SideEffect runs fn after every request.
func SideEffect(fn SideEffectFunc) SideEffects {
	return SideEffects{all: fn}
}

// SideEffectMap runs every callback whose key matches the status or the
// chayns error code.
//
// Example:
//
//	httprequest.SideEffectMap(httprequest.NewPatternMap[httprequest.SideEffectFunc]().
//	    Set("401", func(int, *httprequest.ChaynsErrorObject) { logout() }).
//	    Set("/^chayns\\//", func(_ int, e *httprequest.ChaynsErrorObject) { report(e) }))
func SideEffectMap(m *PatternMap[SideEffectFunc]) SideEffects {
	return SideEffects{keyed: m}
}

func (s SideEffects) isZero() bool {
	return s.all == nil && s.keyed == nil
}

// mergeSideEffects keeps call-site effects. Two keyed maps are merged;
// any other combination lets the call site replace the default.
func mergeSideEffects(callSite, defaults SideEffects) SideEffects {
	if callSite.isZero() {
		return defaults
	}
	if callSite.keyed != nil && defaults.keyed != nil && callSite.all == nil {
		return SideEffects{keyed: Merge(callSite.keyed, defaults.keyed)}
	}
	return callSite
}

// dispatch invokes the matching callbacks. Each keyed entry runs at most once
// even if it matches both the status and the error code.
func (s SideEffects) dispatch(status int, errObj *ChaynsErrorObject) {
	if s.all != nil {
		s.all(status, errObj)
	}
	if s.keyed == nil {
		return
	}

	statusStr := strconv.Itoa(status)
	for _, e := range s.keyed.entries {
		matched := e.key.matchExact(statusStr) || e.key.matchStrict(statusStr)
		if !matched && errObj != nil {
			matched = e.key.matchExact(errObj.ErrorCode) || e.key.matchStrict(errObj.ErrorCode)
		}
		if matched && e.value != nil {
			e.value(status, errObj)
		}
	}
}
