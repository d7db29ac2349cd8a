package xmss

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/merkle"
	"github.com/wintersig/xmss-go/ots"
	"github.com/wintersig/xmss-go/th"
)

// Serialized records use a documented, versioned, length-prefixed
// layout (magic || version || fields) rather than an opaque pickled
// blob: every field's width is explicit so a corrupt or truncated
// record fails fast as MalformedInput instead of silently
// misinterpreting bytes.
const (
	magicPublicKey  = "XSPK"
	magicSignature  = "XSSG"
	magicPrivateKey = "XSSK"
	formatVersion   = 1
)

func writeDigest(buf *bytes.Buffer, d th.Digest) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(d)))
	buf.Write(length[:])
	buf.Write(d)
}

func readDigest(r *bytes.Reader) (th.Digest, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, fmt.Errorf("%w: reading digest length: %v", xerrors.MalformedInput, err)
	}
	n := binary.BigEndian.Uint32(length[:])
	d := make(th.Digest, n)
	if _, err := io.ReadFull(r, d); err != nil {
		return nil, fmt.Errorf("%w: reading digest body: %v", xerrors.MalformedInput, err)
	}
	return d, nil
}

func readHeader(r *bytes.Reader, wantMagic string) error {
	magic := make([]byte, len(wantMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("%w: reading magic: %v", xerrors.MalformedInput, err)
	}
	if string(magic) != wantMagic {
		return fmt.Errorf("%w: bad magic %q, want %q", xerrors.MalformedInput, magic, wantMagic)
	}
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading version: %v", xerrors.MalformedInput, err)
	}
	if version != formatVersion {
		return fmt.Errorf("%w: unsupported format version %d", xerrors.MalformedInput, version)
	}
	return nil
}

// SerializePublicKey encodes pk as magic || version || height || root.
func SerializePublicKey(pk *PublicKey) []byte {
	var buf bytes.Buffer
	buf.WriteString(magicPublicKey)
	buf.WriteByte(formatVersion)
	var height [4]byte
	binary.BigEndian.PutUint32(height[:], uint32(pk.Height))
	buf.Write(height[:])
	writeDigest(&buf, pk.Root)
	return buf.Bytes()
}

// DeserializePublicKey is the inverse of SerializePublicKey.
func DeserializePublicKey(data []byte) (*PublicKey, error) {
	r := bytes.NewReader(data)
	if err := readHeader(r, magicPublicKey); err != nil {
		return nil, err
	}
	var height [4]byte
	if _, err := io.ReadFull(r, height[:]); err != nil {
		return nil, fmt.Errorf("%w: reading height: %v", xerrors.MalformedInput, err)
	}
	root, err := readDigest(r)
	if err != nil {
		return nil, err
	}
	return &PublicKey{Root: root, Height: int(binary.BigEndian.Uint32(height[:]))}, nil
}

func writeDigestSlice(buf *bytes.Buffer, digests []th.Digest) {
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(digests)))
	buf.Write(count[:])
	for _, d := range digests {
		writeDigest(buf, d)
	}
}

func readDigestSlice(r *bytes.Reader) ([]th.Digest, error) {
	var count [4]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, fmt.Errorf("%w: reading digest count: %v", xerrors.MalformedInput, err)
	}
	n := binary.BigEndian.Uint32(count[:])
	out := make([]th.Digest, n)
	for i := range out {
		d, err := readDigest(r)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// SerializeSignature encodes sig as magic || version || index ||
// ots-signature || ots-public-key || merkle-path.
func SerializeSignature(sig *Signature) []byte {
	var buf bytes.Buffer
	buf.WriteString(magicSignature)
	buf.WriteByte(formatVersion)
	var index [8]byte
	binary.BigEndian.PutUint64(index[:], sig.Index)
	buf.Write(index[:])
	writeDigestSlice(&buf, []th.Digest(sig.OTSSignature))
	writeDigestSlice(&buf, []th.Digest(sig.OTSPublicKey))

	var pathLen [4]byte
	binary.BigEndian.PutUint32(pathLen[:], uint32(len(sig.Path)))
	buf.Write(pathLen[:])
	for _, step := range sig.Path {
		writeDigest(&buf, step.Sibling)
		if step.IsLeft {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

// DeserializeSignature is the inverse of SerializeSignature.
func DeserializeSignature(data []byte) (*Signature, error) {
	r := bytes.NewReader(data)
	if err := readHeader(r, magicSignature); err != nil {
		return nil, err
	}
	var index [8]byte
	if _, err := io.ReadFull(r, index[:]); err != nil {
		return nil, fmt.Errorf("%w: reading index: %v", xerrors.MalformedInput, err)
	}
	otsSig, err := readDigestSlice(r)
	if err != nil {
		return nil, err
	}
	otsPub, err := readDigestSlice(r)
	if err != nil {
		return nil, err
	}

	var pathLen [4]byte
	if _, err := io.ReadFull(r, pathLen[:]); err != nil {
		return nil, fmt.Errorf("%w: reading path length: %v", xerrors.MalformedInput, err)
	}
	n := binary.BigEndian.Uint32(pathLen[:])
	path := make(merkle.Path, n)
	for i := range path {
		sibling, err := readDigest(r)
		if err != nil {
			return nil, err
		}
		isLeftByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading path step flag: %v", xerrors.MalformedInput, err)
		}
		path[i] = merkle.PathStep{Sibling: sibling, IsLeft: isLeftByte == 1}
	}

	return &Signature{
		OTSSignature: ots.Signature(otsSig),
		OTSPublicKey: ots.PublicKey(otsPub),
		Path:         path,
		Index:        binary.BigEndian.Uint64(index[:]),
	}, nil
}

// SerializePrivateKey encodes sk as magic || version || height || index
// || ots-keypair-count || (ots private key || ots public key)*. The
// Merkle tree itself is never serialized: it is fully derivable from
// the OTS public-key vector, so DeserializePrivateKey rebuilds it from
// hash rather than storing tree nodes redundantly.
func SerializePrivateKey(sk *PrivateKey) []byte {
	sk.mu.Lock()
	defer sk.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(magicPrivateKey)
	buf.WriteByte(formatVersion)
	var height [4]byte
	binary.BigEndian.PutUint32(height[:], uint32(sk.height))
	buf.Write(height[:])
	var index [8]byte
	binary.BigEndian.PutUint64(index[:], sk.index)
	buf.Write(index[:])

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(sk.otsKeys)))
	buf.Write(count[:])
	for i := range sk.otsKeys {
		writeDigestSlice(&buf, []th.Digest(sk.otsKeys[i]))
		writeDigestSlice(&buf, []th.Digest(sk.otsPubs[i]))
	}
	return buf.Bytes()
}

// DeserializePrivateKey rebuilds a PrivateKey from bytes produced by
// SerializePrivateKey, recomputing leaf digests and the Merkle tree
// from the decoded OTS public keys under hash.
func DeserializePrivateKey(data []byte, hash th.TweakableHash) (*PrivateKey, error) {
	r := bytes.NewReader(data)
	if err := readHeader(r, magicPrivateKey); err != nil {
		return nil, err
	}
	var height [4]byte
	if _, err := io.ReadFull(r, height[:]); err != nil {
		return nil, fmt.Errorf("%w: reading height: %v", xerrors.MalformedInput, err)
	}
	var index [8]byte
	if _, err := io.ReadFull(r, index[:]); err != nil {
		return nil, fmt.Errorf("%w: reading index: %v", xerrors.MalformedInput, err)
	}
	var count [4]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, fmt.Errorf("%w: reading keypair count: %v", xerrors.MalformedInput, err)
	}
	n := binary.BigEndian.Uint32(count[:])

	otsKeys := make([]ots.PrivateKey, n)
	otsPubs := make([]ots.PublicKey, n)
	leaves := make([]th.Digest, n)
	for i := range otsKeys {
		sk, err := readDigestSlice(r)
		if err != nil {
			return nil, err
		}
		pk, err := readDigestSlice(r)
		if err != nil {
			return nil, err
		}
		otsKeys[i] = ots.PrivateKey(sk)
		otsPubs[i] = ots.PublicKey(pk)
		leaves[i] = leafDigest(hash, otsPubs[i])
	}

	tree, err := merkle.NewTree(hash, leaves)
	if err != nil {
		return nil, err
	}

	return &PrivateKey{
		otsKeys: otsKeys,
		otsPubs: otsPubs,
		tree:    tree,
		height:  int(binary.BigEndian.Uint32(height[:])),
		index:   binary.BigEndian.Uint64(index[:]),
	}, nil
}
