package xmss

import (
	"bytes"
	"crypto/rand"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wintersig/xmss-go/internal/prf"
	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/ots"
	"github.com/wintersig/xmss-go/statestore"
	"github.com/wintersig/xmss-go/th"
)

func TestGenerateKeyPairFromSeedIsDeterministic(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	prfScheme := prf.NewSHA3PRF(32, hash.OutputLen())
	masterSeed := prfScheme.KeyGen(rand.Reader)

	sk1, pk1, err := x.GenerateKeyPairFromSeed(masterSeed, prfScheme)
	if err != nil {
		t.Fatalf("GenerateKeyPairFromSeed: %v", err)
	}
	sk2, pk2, err := x.GenerateKeyPairFromSeed(masterSeed, prfScheme)
	if err != nil {
		t.Fatalf("GenerateKeyPairFromSeed: %v", err)
	}
	if !bytes.Equal(pk1.Root, pk2.Root) {
		t.Fatal("the same master seed should rebuild the same public key")
	}

	msg := []byte("seeded message")
	sig, err := x.Sign(sk1, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !x.Verify(pk2, msg, sig) {
		t.Fatal("a signature from one seeded keypair should verify against the independently rebuilt public key")
	}
	_ = sk2
}

func TestGenerateKeyPairFromSeedRejectsMismatchedOutputLength(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	prfScheme := prf.NewSHA3PRF(32, hash.OutputLen()+1)
	masterSeed := prfScheme.KeyGen(rand.Reader)

	if _, _, err := x.GenerateKeyPairFromSeed(masterSeed, prfScheme); err == nil {
		t.Fatal("GenerateKeyPairFromSeed should reject a PRF whose output length does not match the hash")
	}
}

// TestWinternitzHeight3 exercises scenario A: Winternitz(w=4), height
// 3, sign "Hello, XMSS!", verify true, tampered message verifies
// false, and the index is 2 after two signs.
func TestWinternitzHeight3(t *testing.T) {
	hash, err := th.NewSHA3(256)
	if err != nil {
		t.Fatalf("NewSHA3: %v", err)
	}
	scheme, err := ots.NewWinternitz(hash, 4)
	if err != nil {
		t.Fatalf("NewWinternitz: %v", err)
	}
	x, err := New(scheme, hash, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sk, pk, err := x.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	msg := []byte("Hello, XMSS!")
	sig, err := x.Sign(sk, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !x.Verify(pk, msg, sig) {
		t.Fatal("Verify should accept a genuine signature")
	}
	if x.Verify(pk, []byte("Wrong message"), sig) {
		t.Fatal("Verify should reject a tampered message")
	}

	if _, err := x.Sign(sk, []byte("second message")); err != nil {
		t.Fatalf("second Sign: %v", err)
	}
	if sk.GetState() != 2 {
		t.Fatalf("GetState() = %d after two signs, want 2", sk.GetState())
	}
}

// TestTargetSumHeight2Exhaustion exercises scenario B: TargetSumWinternitz(w=4),
// height 2, four signs each verify, a fifth returns Exhausted.
func TestTargetSumHeight2Exhaustion(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, err := ots.NewTargetSum(hash, 4)
	if err != nil {
		t.Fatalf("NewTargetSum: %v", err)
	}
	x, err := New(scheme, hash, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sk, pk, err := x.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	for _, msg := range [][]byte{[]byte("A"), []byte("B"), []byte("C"), []byte("D")} {
		sig, err := x.Sign(sk, msg)
		if err != nil {
			t.Fatalf("Sign(%q): %v", msg, err)
		}
		if !x.Verify(pk, msg, sig) {
			t.Fatalf("Verify(%q) should have succeeded", msg)
		}
	}

	if _, err := x.Sign(sk, []byte("E")); err == nil {
		t.Fatal("fifth Sign on a height-2 key should fail")
	} else if !errors.Is(err, xerrors.Exhausted) {
		t.Fatalf("fifth Sign error = %v, want Exhausted", err)
	}
}

func TestVerifyRejectsWrongIndex(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	sk, pk, _ := x.GenerateKeyPair(rand.Reader)

	msg := []byte("indexed message")
	sig, err := x.Sign(sk, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := *sig
	tampered.Index = sig.Index + 1
	if x.Verify(pk, msg, &tampered) {
		t.Fatal("Verify should reject a signature with a tampered index")
	}
}

func TestVerifyNeverPanicsOnMalformedSignature(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	_, pk, _ := x.GenerateKeyPair(rand.Reader)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Verify panicked: %v", r)
		}
	}()
	if x.Verify(pk, []byte("anything"), &Signature{}) {
		t.Fatal("an empty signature should never verify")
	}
	if x.Verify(pk, []byte("anything"), nil) {
		t.Fatal("a nil signature should never verify")
	}
}

func TestFromParameterSetRejectsUnknownName(t *testing.T) {
	if _, err := FromParameterSet("INVALID"); err == nil {
		t.Fatal("FromParameterSet should reject an unknown name")
	}
}

func TestFromParameterSetBuildsWorkingScheme(t *testing.T) {
	x, err := FromParameterSet("SHA2_10_256")
	if err != nil {
		t.Fatalf("FromParameterSet: %v", err)
	}
	if x.Height() != 10 {
		t.Fatalf("Height() = %d, want 10", x.Height())
	}
}

func TestSignAndPersistEnforcesOrderingGuarantee(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	sk, _, _ := x.GenerateKeyPair(rand.Reader)

	store := statestore.Open(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	sig, err := x.SignAndPersist(sk, []byte("persisted message"), store, "node-a")
	if err != nil {
		t.Fatalf("SignAndPersist: %v", err)
	}

	rec, ok, err := store.Get("node-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("state store should have a record for node-a after SignAndPersist")
	}
	if rec.Index != sig.Index+1 {
		t.Fatalf("persisted index = %d, want %d (signed index + 1)", rec.Index, sig.Index+1)
	}
}

func TestSerializePublicKeyRoundTrip(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	_, pk, _ := x.GenerateKeyPair(rand.Reader)

	data := SerializePublicKey(pk)
	back, err := DeserializePublicKey(data)
	if err != nil {
		t.Fatalf("DeserializePublicKey: %v", err)
	}
	if back.Height != pk.Height || string(back.Root) != string(pk.Root) {
		t.Fatal("round-tripped public key does not match original")
	}
}

func TestSerializeSignatureRoundTrip(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	sk, pk, _ := x.GenerateKeyPair(rand.Reader)

	msg := []byte("serialize me")
	sig, err := x.Sign(sk, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	data := SerializeSignature(sig)
	back, err := DeserializeSignature(data)
	if err != nil {
		t.Fatalf("DeserializeSignature: %v", err)
	}
	if !x.Verify(pk, msg, back) {
		t.Fatal("round-tripped signature should still verify")
	}
}

func TestSerializePrivateKeyRoundTrip(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	scheme, _ := ots.NewWinternitz(hash, 4)
	x, _ := New(scheme, hash, 3)
	sk, pk, _ := x.GenerateKeyPair(rand.Reader)
	if _, err := x.Sign(sk, []byte("advance the index once")); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	data := SerializePrivateKey(sk)
	back, err := DeserializePrivateKey(data, hash)
	if err != nil {
		t.Fatalf("DeserializePrivateKey: %v", err)
	}
	if back.GetState() != sk.GetState() {
		t.Fatalf("round-tripped index = %d, want %d", back.GetState(), sk.GetState())
	}
	if !bytes.Equal(back.PublicKey().Root, pk.Root) {
		t.Fatal("round-tripped private key rebuilds a different Merkle root")
	}

	msg := []byte("signed after restore")
	sig, err := x.Sign(back, msg)
	if err != nil {
		t.Fatalf("Sign after restore: %v", err)
	}
	if !x.Verify(pk, msg, sig) {
		t.Fatal("signature produced after restoring a private key should still verify")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	if _, err := DeserializePublicKey([]byte("not a valid record")); err == nil {
		t.Fatal("DeserializePublicKey should reject data with the wrong magic")
	}
}
