package gate

// MaybeTriggerRebuild decides whether the approved set must be rebuilt
// after a gate run. Any rescan invalidates the current approved set, so
// the decision is simply rescanCount > 0. Invoking the external approval
// builder is the caller's responsibility; this function only emits the
// decision value.
func MaybeTriggerRebuild(rescanCount int) RebuildDecision {
	return RebuildDecision{
		RebuildRequired: rescanCount > 0,
		RescanCount:     rescanCount,
	}
}
