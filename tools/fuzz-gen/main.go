// fuzz-gen seeds the parser fuzz corpus with generated documents: random
// JSON trees serialized compactly, plus corrupted variants that probe the
// rejection paths. Entries are written in the go test fuzz v1 format.
//
//	go run ./tools/fuzz-gen -out internal/document/testdata/fuzz/FuzzParse -n 64
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

func main() {
	outDir := flag.String("out", "internal/document/testdata/fuzz/FuzzParse", "corpus output directory")
	count := flag.Int("n", 64, "number of entries to generate")
	seed := flag.Int64("seed", 0, "rng seed (0 = time-based)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fatal(err)
	}

	for i := 0; i < *count; i++ {
		doc := genValue(rng, 0)
		if rng.Intn(4) == 0 {
			doc = corrupt(rng, doc)
		}
		entry := "go test fuzz v1\nstring(" + strconv.Quote(doc) + ")\n"
		name := filepath.Join(*outDir, fmt.Sprintf("gen-%d-%d", *seed, i))
		if err := os.WriteFile(name, []byte(entry), 0o644); err != nil {
			fatal(err)
		}
	}
	fmt.Printf("wrote %d corpus entries to %s (seed %d)\n", *count, *outDir, *seed)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "fuzz-gen: %v\n", err)
	os.Exit(1)
}

const maxDepth = 5

// genValue emits one random JSON value in compact text form.
func genValue(rng *rand.Rand, depth int) string {
	roll := rng.Intn(8)
	if depth >= maxDepth {
		roll = 2 + rng.Intn(6) // scalars only
	}
	switch roll {
	case 0: // object
		n := rng.Intn(5)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = strconv.Quote(genKey(rng)) + ":" + genValue(rng, depth+1)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case 1: // array
		n := rng.Intn(5)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = genValue(rng, depth+1)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case 2:
		return strconv.Quote(genKey(rng))
	case 3:
		return strconv.Itoa(rng.Intn(1<<20) - 1<<19)
	case 4:
		return strconv.FormatFloat(rng.NormFloat64()*1e6, 'g', -1, 64)
	case 5:
		return "true"
	case 6:
		return "false"
	default:
		return "null"
	}
}

// genKey mixes plain identifiers with keys that need escaping: unicode,
// control characters, leading underscores, the empty string.
func genKey(rng *rand.Rand) string {
	switch rng.Intn(6) {
	case 0:
		return ""
	case 1:
		return "_" + randWord(rng)
	case 2:
		return randWord(rng) + "\n" + randWord(rng)
	case 3:
		return "ключ" + strconv.Itoa(rng.Intn(10))
	default:
		return randWord(rng)
	}
}

func randWord(rng *rand.Rand) string {
	const letters = "abcdefghij"
	b := make([]byte, 1+rng.Intn(6))
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}

// corrupt damages a well-formed document so the corpus also covers inputs
// the parser must reject without panicking.
func corrupt(rng *rand.Rand, s string) string {
	if s == "" {
		return s
	}
	switch rng.Intn(4) {
	case 0: // truncate
		return s[:rng.Intn(len(s))]
	case 1: // duplicate a tail, yields trailing garbage
		return s + s[rng.Intn(len(s)):]
	case 2: // flip one byte
		b := []byte(s)
		b[rng.Intn(len(b))] ^= 0x20
		return string(b)
	default: // drop one byte
		i := rng.Intn(len(s))
		return s[:i] + s[i+1:]
	}
}
