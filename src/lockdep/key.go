package lockdep

import "unsafe"

// keyAddress returns key's address as the class identity it stands in
// for. A nil key (an instance-identity registration, not a shared-class
// one) has no stable address to compare against, so callers that want
// per-instance classes pass the instance's own address directly to
// Register instead of going through a LockClassKey.
func keyAddress(key *LockClassKey) uintptr {
	return uintptr(unsafe.Pointer(key))
}
