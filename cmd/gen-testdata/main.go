// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a flat YAML document of hmac-sha256 keys
// mapping to random values, suitable as testdata.large.
package main

import (
	"bufio"
	"context"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"

	"github.com/scott-cotton/cli"
)

const (
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

type config struct {
	N    int   `cli:"name=n desc='number of key: value pairs'"`
	Seed int64 `cli:"name=seed desc='random seed (0: seed from crypto/rand)'"`
	Seqs int   `cli:"name=seqs desc='emit a short sequence after every seqs pairs (0: never)'"`

	Command *cli.Command
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

func main() {
	cfg := &config{N: 1000000}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommandAt(&cfg.Command, "gen-testdata").
		WithSynopsis("gen-testdata [-n pairs] [-seed n] [-seqs n]").
		WithDescription("write a flat YAML test document to stdout").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			if _, err := cfg.Command.Parse(cc, args); err != nil {
				cfg.Command.Usage(cc, err)
				return cli.ExitCodeErr(1)
			}
			return generate(cc.Out, cfg)
		})
	cli.MainContext(context.Background(), cmd)
}

func generate(out io.Writer, cfg *config) error {
	rng := newRand(cfg.Seed)
	h := hmac.New(sha256.New, []byte(hmacKey))
	w := bufio.NewWriterSize(out, 64*1024)

	if _, err := fmt.Fprintln(w, "# hmac-sha256 keys mapping to random values"); err != nil {
		return err
	}
	for i := 0; i < cfg.N; i++ {
		var buf [suffixLen / 2]byte
		if _, err := rng.Read(buf[:]); err != nil {
			return err
		}
		value := fmt.Sprintf("%s%x", prefix, buf)
		h.Reset()
		h.Write([]byte(value))
		key := hex.EncodeToString(h.Sum(nil))

		if _, err := fmt.Fprintf(w, "%s: %s\n", key, value); err != nil {
			return err
		}
		if cfg.Seqs > 0 && (i+1)%cfg.Seqs == 0 {
			if _, err := fmt.Fprintf(w, "- %s\n- %d\n", key[:8], rng.Intn(1000)); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
