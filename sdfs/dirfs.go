package sdfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// DirVolumeManager exposes a host directory through the volume-manager
// handle interface, standing in for the SD card during development and tests
type DirVolumeManager struct {
	root string

	mu      sync.Mutex
	next    uint32
	volumes map[Volume]bool
	dirs    map[Dir]string
	files   map[File]*os.File
}

func NewDirVolumeManager(root string) *DirVolumeManager {
	return &DirVolumeManager{
		root:    root,
		next:    1,
		volumes: make(map[Volume]bool),
		dirs:    make(map[Dir]string),
		files:   make(map[File]*os.File),
	}
}

func (m *DirVolumeManager) handle() uint32 {
	h := m.next
	m.next++
	return h
}

func (m *DirVolumeManager) OpenVolume(index int) (Volume, error) {
	if index != 0 {
		return 0, &DeviceError{Op: "open volume", Err: errors.New("no such volume")}
	}
	if _, err := os.Stat(m.root); err != nil {
		return 0, &DeviceError{Op: "open volume", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := Volume(m.handle())
	m.volumes[v] = true
	return v, nil
}

func (m *DirVolumeManager) OpenRootDir(v Volume) (Dir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.volumes[v] {
		return 0, &DeviceError{Op: "open root dir", Err: errors.New("volume not open")}
	}
	d := Dir(m.handle())
	m.dirs[d] = m.root
	return d, nil
}

func (m *DirVolumeManager) OpenFileInDir(d Dir, name string, mode Mode) (File, error) {
	m.mu.Lock()
	path, ok := m.dirs[d]
	m.mu.Unlock()
	if !ok {
		return 0, &DeviceError{Op: "open file", Err: errors.New("directory not open")}
	}

	flags := os.O_RDONLY
	if mode == ReadWriteAppend {
		flags = os.O_RDWR | os.O_APPEND
	}
	f, err := os.OpenFile(filepath.Join(path, name), flags, 0)
	if err != nil {
		return 0, &DeviceError{Op: "open file", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	h := File(m.handle())
	m.files[h] = f
	return h, nil
}

func (m *DirVolumeManager) Read(f File, buf []byte) (int, error) {
	m.mu.Lock()
	file, ok := m.files[f]
	m.mu.Unlock()
	if !ok {
		return 0, &DeviceError{Op: "read", Err: errors.New("file not open")}
	}
	n, err := file.Read(buf)
	if err == io.EOF {
		return n, nil
	}
	if err != nil {
		return n, &DeviceError{Op: "read", Err: err}
	}
	return n, nil
}

func (m *DirVolumeManager) IterateDir(d Dir, fn func(DirEntry)) error {
	m.mu.Lock()
	path, ok := m.dirs[d]
	m.mu.Unlock()
	if !ok {
		return &DeviceError{Op: "iterate dir", Err: errors.New("directory not open")}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return &DeviceError{Op: "iterate dir", Err: err}
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fn(DirEntry{Name: e.Name(), Size: uint64(info.Size())})
	}
	return nil
}

func (m *DirVolumeManager) CloseFile(f File) error {
	m.mu.Lock()
	file, ok := m.files[f]
	delete(m.files, f)
	m.mu.Unlock()
	if !ok {
		return &DeviceError{Op: "close file", Err: errors.New("file not open")}
	}
	if err := file.Close(); err != nil {
		return &DeviceError{Op: "close file", Err: err}
	}
	return nil
}

func (m *DirVolumeManager) CloseDir(d Dir) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dirs[d]; !ok {
		return &DeviceError{Op: "close dir", Err: errors.New("directory not open")}
	}
	delete(m.dirs, d)
	return nil
}

func (m *DirVolumeManager) CloseVolume(v Volume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.volumes[v] {
		return &DeviceError{Op: "close volume", Err: errors.New("volume not open")}
	}
	delete(m.volumes, v)
	return nil
}
