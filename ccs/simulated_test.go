package ccs

import (
	"context"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSealKey = make([]byte, SealKeySize)

func init() {
	for i := range testSealKey {
		testSealKey[i] = 0x37
	}
}

func newTestEngine(t *testing.T) *SimulatedEngine {
	t.Helper()
	engine, err := NewSimulatedEngine(testSealKey, nil)
	require.NoError(t, err)
	return engine
}

func testShipment(fill byte) interfaces.ShipmentID {
	var id interfaces.ShipmentID
	for i := range id {
		id[i] = fill
	}
	return id
}

func TestNewSimulatedEngineKeySize(t *testing.T) {
	_, err := NewSimulatedEngine([]byte("short"), nil)
	assert.Error(t, err)
}

func TestSubmitExternal(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	id := testShipment(1)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	party := PartyIDForKey(key)

	ciphertext, proof, err := engine.SealForSubmission(42, id, key)
	require.NoError(t, err)

	h, err := engine.SubmitExternal(ctx, ciphertext, proof, interfaces.ProofBinding{Shipment: id, Submitter: party})
	require.NoError(t, err)
	assert.False(t, h.IsNull())

	// No view grant yet, even for the submitter.
	_, err = engine.Decrypt(ctx, h, party)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, engine.GrantView(ctx, h, party))
	value, err := engine.Decrypt(ctx, h, party)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), value)
}

func TestSubmitExternalWrongSubmitter(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	id := testShipment(1)

	signerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	ciphertext, proof, err := engine.SealForSubmission(42, id, signerKey)
	require.NoError(t, err)

	// Claimed submitter does not match the proof signer.
	_, err = engine.SubmitExternal(ctx, ciphertext, proof, interfaces.ProofBinding{
		Shipment:  id,
		Submitter: PartyIDForKey(otherKey),
	})
	assert.ErrorIs(t, err, interfaces.ErrAttestationRejected)
}

func TestSubmitExternalWrongShipment(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	// Proof bound to shipment 1, replayed against shipment 2.
	ciphertext, proof, err := engine.SealForSubmission(42, testShipment(1), key)
	require.NoError(t, err)

	_, err = engine.SubmitExternal(ctx, ciphertext, proof, interfaces.ProofBinding{
		Shipment:  testShipment(2),
		Submitter: PartyIDForKey(key),
	})
	assert.ErrorIs(t, err, interfaces.ErrAttestationRejected)
}

func TestSubmitExternalMalformed(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	id := testShipment(1)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	binding := interfaces.ProofBinding{Shipment: id, Submitter: PartyIDForKey(key)}

	_, err = engine.SubmitExternal(ctx, nil, nil, binding)
	assert.ErrorIs(t, err, interfaces.ErrAttestationRejected)

	// Well-signed garbage is still rejected: the box must open.
	garbage := []byte("not a sealed box at all, but long enough")
	proof, err := SignSubmission(key, garbage, id)
	require.NoError(t, err)
	_, err = engine.SubmitExternal(ctx, garbage, proof, binding)
	assert.ErrorIs(t, err, interfaces.ErrAttestationRejected)
}

func TestCompareLE(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	scope := testShipment(1)

	for _, tc := range []struct {
		name string
		a, b uint64
		want uint64
	}{
		{"less", 100, 200, 1},
		{"equal", 200, 200, 1},
		{"greater", 201, 200, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := engine.EncryptTrusted(ctx, tc.a)
			require.NoError(t, err)
			b, err := engine.EncryptTrusted(ctx, tc.b)
			require.NoError(t, err)

			require.NoError(t, engine.GrantUse(ctx, a, scope))
			require.NoError(t, engine.GrantUse(ctx, b, scope))

			verdict, err := engine.CompareLE(ctx, a, b)
			require.NoError(t, err)

			require.NoError(t, engine.MarkPublic(ctx, verdict))
			value, err := engine.Decrypt(ctx, verdict, interfaces.NullParty)
			require.NoError(t, err)
			assert.Equal(t, tc.want, value)
		})
	}
}

func TestCompareLERequiresCommonScope(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	a, err := engine.EncryptTrusted(ctx, 1)
	require.NoError(t, err)
	b, err := engine.EncryptTrusted(ctx, 2)
	require.NoError(t, err)

	// No use grants at all.
	_, err = engine.CompareLE(ctx, a, b)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// Disjoint scopes are just as useless.
	require.NoError(t, engine.GrantUse(ctx, a, testShipment(1)))
	require.NoError(t, engine.GrantUse(ctx, b, testShipment(2)))
	_, err = engine.CompareLE(ctx, a, b)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// One shared scope unlocks the comparison.
	require.NoError(t, engine.GrantUse(ctx, b, testShipment(1)))
	_, err = engine.CompareLE(ctx, a, b)
	assert.NoError(t, err)
}

func TestCompareLEUnknownHandle(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	a, err := engine.EncryptTrusted(ctx, 1)
	require.NoError(t, err)

	_, err = engine.CompareLE(ctx, a, interfaces.CipherHandle{})
	assert.ErrorIs(t, err, interfaces.ErrInvalidInput)
}

func TestGrantsUnknownHandle(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	var unknown interfaces.CipherHandle

	assert.ErrorIs(t, engine.GrantUse(ctx, unknown, testShipment(1)), interfaces.ErrInvalidInput)
	assert.ErrorIs(t, engine.GrantView(ctx, unknown, interfaces.NullParty), interfaces.ErrInvalidInput)
	assert.ErrorIs(t, engine.MarkPublic(ctx, unknown), interfaces.ErrInvalidInput)
}

func TestDecrypt(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	h, err := engine.EncryptTrusted(ctx, 7)
	require.NoError(t, err)

	viewerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	viewer := PartyIDForKey(viewerKey)

	_, err = engine.Decrypt(ctx, interfaces.CipherHandle{}, viewer)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	_, err = engine.Decrypt(ctx, h, viewer)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, engine.GrantView(ctx, h, viewer))
	assert.True(t, engine.HasViewGrant(h, viewer))
	value, err := engine.Decrypt(ctx, h, viewer)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), value)

	// Marking public opens the handle to everyone.
	assert.False(t, engine.IsPublic(h))
	require.NoError(t, engine.MarkPublic(ctx, h))
	assert.True(t, engine.IsPublic(h))
	_, err = engine.Decrypt(ctx, h, interfaces.NullParty)
	assert.NoError(t, err)
}

func TestTransportBytes(t *testing.T) {
	engine := newTestEngine(t)

	h, err := engine.EncryptTrusted(context.Background(), 7)
	require.NoError(t, err)

	token := engine.TransportBytes(h)
	assert.Equal(t, h.String(), token.String())
}

func TestRecoverSubmitterRoundtrip(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	id := testShipment(3)
	ciphertext := []byte("opaque bytes")

	proof, err := SignSubmission(key, ciphertext, id)
	require.NoError(t, err)

	submitter, err := RecoverSubmitter(ciphertext, id, proof)
	require.NoError(t, err)
	assert.Equal(t, PartyIDForKey(key), submitter)
}
