package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sealane/confidential-shipment-backend/api/clients"
	"github.com/sealane/confidential-shipment-backend/ccs"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "shipment server address",
}

var flagShipment = &cli.StringFlag{
	Name:     "shipment",
	Required: true,
	Usage:    "shipment ID, 64-char hex string",
}

var flagPartyKey = &cli.StringFlag{
	Name:  "party-key",
	Usage: "hex-encoded secp256k1 private key; the party identity is derived from it",
}

var flagParty = &cli.StringFlag{
	Name:  "party",
	Usage: "party identity, 40-char hex string (for operations that need no proofs)",
}

var flagSealSeed = &cli.StringFlag{
	Name:  "seal-seed",
	Usage: "hex-encoded 32-byte sealing key of the simulated engine, used to prepare external ciphertexts",
}

func main() {
	app := &cli.App{
		Name:  "shipmentctl",
		Usage: "Operate confidential shipments: create, ingest meta, mark delivery, manage viewers",
		Flags: []cli.Flag{flagServerAddr},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a new shipment; the caller becomes the shipper",
				Flags: []cli.Flag{
					flagShipment, flagParty, flagPartyKey,
					&cli.StringFlag{Name: "carrier", Required: true, Usage: "carrier identity, 40-char hex"},
					&cli.StringFlag{Name: "consignee", Required: true, Usage: "consignee identity, 40-char hex"},
				},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}
					carrier, err := interfaces.NewPartyIDFromHex(cCtx.String("carrier"))
					if err != nil {
						return fmt.Errorf("carrier: %w", err)
					}
					consignee, err := interfaces.NewPartyIDFromHex(cCtx.String("consignee"))
					if err != nil {
						return fmt.Errorf("consignee: %w", err)
					}
					return client.Create(id, carrier, consignee)
				},
			},
			{
				Name:  "ingest-meta",
				Usage: "Encrypt and submit cargo tag, route tag and deadline (simulated engine only)",
				Flags: []cli.Flag{
					flagShipment, flagPartyKey, flagSealSeed,
					&cli.Uint64Flag{Name: "cargo-tag", Required: true, Usage: "cargo identity tag value"},
					&cli.Uint64Flag{Name: "route-tag", Required: true, Usage: "route tag value"},
					&cli.Uint64Flag{Name: "deadline", Required: true, Usage: "delivery deadline, unix seconds"},
				},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}

					key, err := crypto.HexToECDSA(cCtx.String("party-key"))
					if err != nil {
						return fmt.Errorf("party-key: %w", err)
					}
					sealKey, err := ccs.ParseSealKeyHex(cCtx.String("seal-seed"))
					if err != nil {
						return err
					}
					engine, err := ccs.NewSimulatedEngine(sealKey, nil)
					if err != nil {
						return err
					}

					fields := make([]interfaces.EncryptedInput, 3)
					for i, value := range []uint64{
						cCtx.Uint64("cargo-tag"),
						cCtx.Uint64("route-tag"),
						cCtx.Uint64("deadline"),
					} {
						ciphertext, proof, err := engine.SealForSubmission(value, id, key)
						if err != nil {
							return err
						}
						fields[i] = interfaces.EncryptedInput{Ciphertext: ciphertext, Proof: proof}
					}

					return client.IngestMeta(id, fields[0], fields[1], fields[2])
				},
			},
			{
				Name:  "deliver",
				Usage: "Mark the shipment delivered at the server clock",
				Flags: []cli.Flag{flagShipment, flagParty, flagPartyKey},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}
					return client.MarkDelivered(id)
				},
			},
			{
				Name:  "grant-viewer",
				Usage: "Extend view rights to an additional identity",
				Flags: []cli.Flag{
					flagShipment, flagParty, flagPartyKey,
					&cli.StringFlag{Name: "viewer", Required: true, Usage: "viewer identity, 40-char hex"},
				},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}
					viewer, err := interfaces.NewPartyIDFromHex(cCtx.String("viewer"))
					if err != nil {
						return fmt.Errorf("viewer: %w", err)
					}
					return client.GrantViewer(id, viewer)
				},
			},
			{
				Name:  "participants",
				Usage: "Show the registered parties and progress flags",
				Flags: []cli.Flag{flagShipment},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}
					out, err := client.GetParticipants(id)
					if err != nil {
						return err
					}
					return printJSON(out)
				},
			},
			{
				Name:  "meta-handles",
				Usage: "Show the encrypted meta handle tokens",
				Flags: []cli.Flag{flagShipment},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}
					out, err := client.GetMetaHandles(id)
					if err != nil {
						return err
					}
					return printJSON(out)
				},
			},
			{
				Name:  "result-handles",
				Usage: "Show the delivery flag and result handle tokens",
				Flags: []cli.Flag{flagShipment},
				Action: func(cCtx *cli.Context) error {
					client, id, err := clientAndShipment(cCtx)
					if err != nil {
						return err
					}
					out, err := client.GetResultHandles(id)
					if err != nil {
						return err
					}
					return printJSON(out)
				},
			},
			{
				Name:  "seal-split",
				Usage: "Generate a sealing key and split it into Shamir shares for operators",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "shares", Value: 5, Usage: "number of shares to generate"},
					&cli.IntFlag{Name: "threshold", Value: 3, Usage: "shares required to reconstruct"},
					&cli.StringFlag{Name: "seed", Usage: "hex-encoded key to split (random if omitted)"},
				},
				Action: func(cCtx *cli.Context) error {
					var key []byte
					if seed := cCtx.String("seed"); seed != "" {
						var err error
						key, err = ccs.ParseSealKeyHex(seed)
						if err != nil {
							return err
						}
					} else {
						key = make([]byte, ccs.SealKeySize)
						if _, err := rand.Read(key); err != nil {
							return err
						}
						fmt.Printf("sealing key: %s\n", hex.EncodeToString(key))
					}

					shares, err := ccs.SplitSealKey(key, cCtx.Int("shares"), cCtx.Int("threshold"))
					if err != nil {
						return err
					}
					for i, share := range shares {
						fmt.Printf("share %d: %s\n", i+1, share)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// clientAndShipment builds the API client from the global and identity
// flags and parses the shipment ID.
func clientAndShipment(cCtx *cli.Context) (*clients.ShipmentClient, interfaces.ShipmentID, error) {
	id, err := interfaces.NewShipmentIDFromHex(cCtx.String("shipment"))
	if err != nil {
		return nil, interfaces.ShipmentID{}, fmt.Errorf("shipment: %w", err)
	}

	client := &clients.ShipmentClient{ServerAddr: cCtx.String(flagServerAddr.Name)}

	if keyHex := cCtx.String("party-key"); keyHex != "" {
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			return nil, interfaces.ShipmentID{}, fmt.Errorf("party-key: %w", err)
		}
		client.Party = ccs.PartyIDForKey(key)
	} else if partyHex := cCtx.String("party"); partyHex != "" {
		party, err := interfaces.NewPartyIDFromHex(partyHex)
		if err != nil {
			return nil, interfaces.ShipmentID{}, fmt.Errorf("party: %w", err)
		}
		client.Party = party
	}

	return client, id, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
