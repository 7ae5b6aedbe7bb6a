//go:build unix

package registry

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock holds an advisory exclusive lock on the registry file,
// mirroring internal/instance/lock_windows.go's AcquireLock/ReleaseLock
// shape but via golang.org/x/sys/unix flock rather than a Windows
// exclusive CreateFile handle, since SKEIN's registry is a shared
// config file guarded against concurrent writers rather than a
// single-instance PID lock.
type fileLock struct {
	f *os.File
}

// acquireLock opens (creating if needed) and flock(2)s path exclusively,
// blocking until available.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to acquire registry lock: %w", err)
	}

	return &fileLock{f: f}, nil
}

// release unlocks and closes the lock file.
func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("failed to release registry lock: %w", err)
	}
	return l.f.Close()
}
