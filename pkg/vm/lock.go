package vm

// The engine runs script on a single logical thread guarded by one mutex.
// Every host callback is a reentrancy boundary: the lock is released right
// before the callback and reacquired before its results are inspected, so a
// callback may call back into the engine (read properties, allocate values,
// invoke functions) without deadlocking. Nothing cached across the boundary
// may be trusted afterwards except identifiers captured before the call.

func (vm *VM) lock() {
	vm.mu.Lock()
}

func (vm *VM) unlock() {
	vm.mu.Unlock()
}

// withLocksDropped releases the engine lock around fn and reacquires it on
// every exit path, including panics.
func (vm *VM) withLocksDropped(fn func()) {
	vm.mu.Unlock()
	defer vm.mu.Lock()
	fn()
}
