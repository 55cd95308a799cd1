package heap

// ResetGlobal uninstalls the process-wide heap
func ResetGlobal() {
	global.Store(nil)
}
