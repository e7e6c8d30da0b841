package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pulsecore/core"
	"pulsecore/pkg/config"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{Use: "pulse"}
	rootCmd.AddCommand(identityCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(zapCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	env := os.Getenv("PULSE_ENV")
	return config.Load(env)
}

func openSecretStore() (core.SecretStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".pulse", "secrets")
	return core.NewFileSecretStore(dir)
}

func identityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "identity"}

	show := &cobra.Command{
		Use:   "show",
		Short: "print this node's mesh DID and Nostr npub",
		RunE: func(cmd *cobra.Command, args []string) error {
			secrets, err := openSecretStore()
			if err != nil {
				return err
			}
			store := core.NewIdentityStore(secrets)
			meshID, handle, ok, err := store.Load()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no mesh identity yet; run `pulse identity create <handle>` first")
				return nil
			}
			fmt.Printf("handle: %s\n", handle)
			fmt.Printf("mesh did: %s\n", meshID.DID())
			fmt.Printf("mesh enc pub: %s\n", hex.EncodeToString(meshID.EncPub[:]))

			nostrID, ok, err := store.LoadNostr()
			if err != nil {
				return err
			}
			if ok {
				npub, err := nostrID.Npub()
				if err != nil {
					return err
				}
				fmt.Printf("nostr npub: %s\n", npub)
			}
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create [handle]",
		Short: "create a new mesh identity with the given handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secrets, err := openSecretStore()
			if err != nil {
				return err
			}
			store := core.NewIdentityStore(secrets)
			meshID, err := store.CreateOrFail(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created identity %q, did=%s\n", args[0], meshID.DID())
			return nil
		},
	}

	cmd.AddCommand(show, create)
	return cmd
}

func newCoreFromConfig(cfg *config.Config) (*core.Core, error) {
	secrets, err := openSecretStore()
	if err != nil {
		return nil, err
	}

	var node *core.Node
	var pm *core.PeerManagement
	if cfg.Mesh.Enabled {
		node, err = core.NewNode(core.Config{
			ListenAddr:     cfg.Mesh.ListenAddr,
			BootstrapPeers: cfg.Mesh.BootstrapPeers,
			DiscoveryTag:   cfg.Mesh.DiscoveryTag,
		})
		if err != nil {
			return nil, err
		}
		pm = core.NewPeerManagement(node)
	}

	return core.NewCore(cfg, secrets, node, pm)
}

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "start this node and listen for inbound messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := newCoreFromConfig(cfg)
			if err != nil {
				return err
			}
			defer c.Stop()

			c.OnMessage(func(from core.NodeID, msgType core.MessageType, plaintext []byte) {
				fmt.Printf("[%s] %s: %s\n", msgType, from, plaintext)
			})

			ctx := context.Background()
			if err := c.Start(ctx); err != nil {
				return err
			}
			fmt.Printf("pulse node %s listening (mesh=%v nostr=%v)\n", c.MeshHandle, cfg.Mesh.Enabled, cfg.Nostr.Enabled)
			select {}
		},
	}
}

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [recipient-node-id] [recipient-enc-pub-hex] [message]",
		Short: "send an end-to-end encrypted text message to a peer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := newCoreFromConfig(cfg)
			if err != nil {
				return err
			}
			defer c.Stop()

			encPubBytes, err := hex.DecodeString(args[1])
			if err != nil || len(encPubBytes) != 32 {
				return fmt.Errorf("recipient-enc-pub-hex must be 32 bytes of hex")
			}
			var recipientEncPub [32]byte
			copy(recipientEncPub[:], encPubBytes)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.Start(ctx); err != nil {
				return err
			}

			pkt, err := c.SendMessage(ctx, core.NodeID(args[0]), recipientEncPub, core.MessageTypeText, []byte(args[2]))
			if err != nil {
				return err
			}
			fmt.Printf("sent packet %s\n", pkt.PacketID)
			return nil
		},
	}
	return cmd
}

func zapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zap [lightning-address] [amount-msat]",
		Short: "zap a Lightning address via NIP-57",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secrets, err := openSecretStore()
			if err != nil {
				return err
			}
			store := core.NewIdentityStore(secrets)
			nostrID, ok, err := store.LoadNostr()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no nostr identity yet; run `pulse listen` or `pulse send` once to create it")
			}

			var amountMsat uint64
			if _, err := fmt.Sscanf(args[1], "%d", &amountMsat); err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			lp, err := core.FetchLNURLPayResponse(args[0])
			if err != nil {
				return err
			}
			zapRequest, err := core.BuildZapRequest(nostrID, nostrID.PubKeyHex, "", nil, amountMsat, "", time.Now().Unix())
			if err != nil {
				return err
			}
			inv, err := core.RequestZapInvoice(lp, zapRequest, amountMsat)
			if err != nil {
				return err
			}
			if err := core.VerifyZapInvoice(inv, zapRequest, amountMsat); err != nil {
				return err
			}
			fmt.Printf("open this to pay: %s\n", core.WalletURI(inv))
			return nil
		},
	}
	return cmd
}
