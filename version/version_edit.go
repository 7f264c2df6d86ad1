// Package version implements the manifest's version bookkeeping:
// VersionEdit (a diff of the set of live SST files), Version (one
// immutable snapshot of that set), and VersionSet (the mutable pointer
// to the current Version plus manifest persistence) — spec.md §4.5.
package version

import (
	"encoding/binary"

	"github.com/ChinmayNoob/lsm-go/status"
)

// NumLevels is the fixed number of LSM levels.
const NumLevels = 7

// FileMetaData describes one SST file tracked by a Version.
type FileMetaData struct {
	Number   uint64
	FileSize uint64
	Smallest []byte
	Largest  []byte
}

// DeletedFileRef names one file removed from a level.
type DeletedFileRef struct {
	Level int
	File  uint64
}

// NewFileRef names one file added to a level.
type NewFileRef struct {
	Level int
	Meta  FileMetaData
}

type createdCF struct {
	id   uint32
	name string
}

// VersionEdit records the changes between two Versions: which files were
// added/removed at which level, and which column families were
// created/dropped, plus optional manifest bookkeeping fields.
type VersionEdit struct {
	Comparator    string
	HasComparator bool

	LogNumber    uint64
	HasLogNumber bool

	NextFileNumber    uint64
	HasNextFileNumber bool

	LastSequence    uint64
	HasLastSequence bool

	deletedFiles []DeletedFileRef
	newFiles     []NewFileRef
	createdCFs   []createdCF
	droppedCFs   []uint32
}

func (e *VersionEdit) SetComparator(name string) { e.Comparator, e.HasComparator = name, true }
func (e *VersionEdit) SetLogNumber(n uint64)      { e.LogNumber, e.HasLogNumber = n, true }
func (e *VersionEdit) SetNextFileNumber(n uint64) { e.NextFileNumber, e.HasNextFileNumber = n, true }
func (e *VersionEdit) SetLastSequence(s uint64)   { e.LastSequence, e.HasLastSequence = s, true }

func (e *VersionEdit) AddFile(level int, meta FileMetaData) {
	e.newFiles = append(e.newFiles, NewFileRef{Level: level, Meta: meta})
}

func (e *VersionEdit) DeleteFile(level int, fileNumber uint64) {
	e.deletedFiles = append(e.deletedFiles, DeletedFileRef{Level: level, File: fileNumber})
}

func (e *VersionEdit) CreateColumnFamily(id uint32, name string) {
	e.createdCFs = append(e.createdCFs, createdCF{id: id, name: name})
}

func (e *VersionEdit) DropColumnFamily(id uint32) {
	e.droppedCFs = append(e.droppedCFs, id)
}

// NewFiles and DeletedFiles expose the edit's file-level changes for
// VersionSet.LogAndApply and manifest recovery.
func (e *VersionEdit) NewFiles() []NewFileRef { return e.newFiles }

func (e *VersionEdit) DeletedFiles() []DeletedFileRef { return e.deletedFiles }

func (e *VersionEdit) CreatedColumnFamilies() map[uint32]string {
	m := make(map[uint32]string, len(e.createdCFs))
	for _, cf := range e.createdCFs {
		m[cf.id] = cf.name
	}
	return m
}

func (e *VersionEdit) DroppedColumnFamilies() []uint32 { return e.droppedCFs }

// Tags for the manifest's self-describing tagged encoding (spec.md §4.5
// inherits the reference implementation's format 1:1).
const (
	tagComparator = 1
	tagLogNumber  = 2
	tagNextFile   = 3
	tagLastSeq    = 4
	tagDeleteFile = 5
	tagNewFile    = 6
	tagCreateCF   = 7
	tagDropCF     = 8
)

func putUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putLenPrefixed(buf []byte, data []byte) []byte {
	buf = putUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Encode serializes the edit into the manifest's tagged record format.
func (e *VersionEdit) Encode() []byte {
	var buf []byte

	if e.HasComparator {
		buf = append(buf, tagComparator)
		buf = putLenPrefixed(buf, []byte(e.Comparator))
	}
	if e.HasLogNumber {
		buf = append(buf, tagLogNumber)
		buf = putUint64(buf, e.LogNumber)
	}
	if e.HasNextFileNumber {
		buf = append(buf, tagNextFile)
		buf = putUint64(buf, e.NextFileNumber)
	}
	if e.HasLastSequence {
		buf = append(buf, tagLastSeq)
		buf = putUint64(buf, e.LastSequence)
	}
	for _, df := range e.deletedFiles {
		buf = append(buf, tagDeleteFile, uint8(df.Level))
		buf = putUint64(buf, df.File)
	}
	for _, nf := range e.newFiles {
		buf = append(buf, tagNewFile, uint8(nf.Level))
		buf = putUint64(buf, nf.Meta.Number)
		buf = putUint64(buf, nf.Meta.FileSize)
		buf = putLenPrefixed(buf, nf.Meta.Smallest)
		buf = putLenPrefixed(buf, nf.Meta.Largest)
	}
	for _, cf := range e.createdCFs {
		buf = append(buf, tagCreateCF)
		buf = putUint32(buf, cf.id)
		buf = putLenPrefixed(buf, []byte(cf.name))
	}
	for _, id := range e.droppedCFs {
		buf = append(buf, tagDropCF)
		buf = putUint32(buf, id)
	}
	return buf
}

// DecodeVersionEdit parses the tagged record format written by Encode.
func DecodeVersionEdit(data []byte) (*VersionEdit, *status.Status) {
	e := &VersionEdit{}
	pos := 0

	readUint32 := func() (uint32, *status.Status) {
		if pos+4 > len(data) {
			return 0, status.Corruptionf("version edit: truncated uint32")
		}
		v := binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
		return v, nil
	}
	readUint64 := func() (uint64, *status.Status) {
		if pos+8 > len(data) {
			return 0, status.Corruptionf("version edit: truncated uint64")
		}
		v := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
		return v, nil
	}
	readLenPrefixed := func() ([]byte, *status.Status) {
		n, st := readUint32()
		if st != nil {
			return nil, st
		}
		if pos+int(n) > len(data) {
			return nil, status.Corruptionf("version edit: truncated length-prefixed field")
		}
		out := data[pos : pos+int(n)]
		pos += int(n)
		return out, nil
	}

	for pos < len(data) {
		tag := data[pos]
		pos++
		switch tag {
		case tagComparator:
			v, st := readLenPrefixed()
			if st != nil {
				return nil, st
			}
			e.SetComparator(string(v))
		case tagLogNumber:
			v, st := readUint64()
			if st != nil {
				return nil, st
			}
			e.SetLogNumber(v)
		case tagNextFile:
			v, st := readUint64()
			if st != nil {
				return nil, st
			}
			e.SetNextFileNumber(v)
		case tagLastSeq:
			v, st := readUint64()
			if st != nil {
				return nil, st
			}
			e.SetLastSequence(v)
		case tagDeleteFile:
			if pos >= len(data) {
				return nil, status.Corruptionf("version edit: truncated deleted-file level")
			}
			level := data[pos]
			pos++
			fileNum, st := readUint64()
			if st != nil {
				return nil, st
			}
			e.DeleteFile(int(level), fileNum)
		case tagNewFile:
			if pos >= len(data) {
				return nil, status.Corruptionf("version edit: truncated new-file level")
			}
			level := data[pos]
			pos++
			number, st := readUint64()
			if st != nil {
				return nil, st
			}
			size, st := readUint64()
			if st != nil {
				return nil, st
			}
			smallest, st := readLenPrefixed()
			if st != nil {
				return nil, st
			}
			largest, st := readLenPrefixed()
			if st != nil {
				return nil, st
			}
			e.AddFile(int(level), FileMetaData{
				Number:   number,
				FileSize: size,
				Smallest: append([]byte(nil), smallest...),
				Largest:  append([]byte(nil), largest...),
			})
		case tagCreateCF:
			id, st := readUint32()
			if st != nil {
				return nil, st
			}
			name, st := readLenPrefixed()
			if st != nil {
				return nil, st
			}
			e.CreateColumnFamily(id, string(name))
		case tagDropCF:
			id, st := readUint32()
			if st != nil {
				return nil, st
			}
			e.DropColumnFamily(id)
		default:
			return nil, status.Corruptionf("version edit: unknown tag %d", tag)
		}
	}
	return e, nil
}
