// Package field implements Shamir secret sharing over a prime field GF(p):
// polynomial share generation and Lagrange reconstruction, plus a
// byte-level chunking codec on top of the single-field-element primitive.
//
// This generalizes the teacher's utils.Polynomial/Evaluate (Horner's
// method over a hardcoded secp256k1 order) and its Lagrange-at-zero
// interpolation routine to an arbitrary configured prime and a full
// (N, t) threshold scheme, with the explicit precondition checks
// (DuplicateIndex, InsufficientShares) the teacher's point-to-point
// helper never needed because its caller (the IVSS dealer protocol)
// already guaranteed them structurally.
package field

import (
	"crypto/rand"
	"math/big"

	sherr "github.com/sharecast/sharecast/errors"
)

// Polynomial is a univariate polynomial over GF(p), coefficients in
// increasing order of degree: a_0 + a_1*x + ... + a_{t-1}*x^{t-1}.
type Polynomial struct {
	Coeffs []*big.Int
	Prime  *big.Int
}

// Evaluate computes p(x) mod Prime by Horner's method.
func (p *Polynomial) Evaluate(x *big.Int) *big.Int {
	result := big.NewInt(0)
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, p.Coeffs[i])
		result.Mod(result, p.Prime)
	}
	return result
}

// Share is one point (i, f(i)) produced by Share.
type Share struct {
	Index *big.Int
	Value *big.Int
}

// Split shares a secret s into N points on a random degree-(t-1)
// polynomial with constant term s, using a cryptographic RNG for the
// coefficients (spec §5: share generation uses a cryptographic RNG,
// simulation uses a seedable deterministic PRNG — the two are never
// conflated).
//
// Requires 0 <= s < prime, 1 <= t <= N < prime.
func Split(s *big.Int, n, t int, prime *big.Int) ([]Share, error) {
	if s.Sign() < 0 || s.Cmp(prime) >= 0 {
		return nil, sherr.ErrFieldOverflow
	}
	if t < 1 || t > n {
		return nil, sherr.ErrInsufficientShares
	}
	if big.NewInt(int64(n)).Cmp(prime) >= 0 {
		return nil, sherr.ErrFieldOverflow
	}

	coeffs := make([]*big.Int, t)
	coeffs[0] = new(big.Int).Set(s)
	for i := 1; i < t; i++ {
		c, err := rand.Int(rand.Reader, prime)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	poly := &Polynomial{Coeffs: coeffs, Prime: prime}

	shares := make([]Share, n)
	for i := 1; i <= n; i++ {
		x := big.NewInt(int64(i))
		shares[i-1] = Share{Index: x, Value: poly.Evaluate(x)}
	}
	return shares, nil
}

// Reconstruct recovers the secret from >= t distinct shares via Lagrange
// interpolation at x = 0.
func Reconstruct(shares []Share, t int, prime *big.Int) (*big.Int, error) {
	if len(shares) < t {
		return nil, sherr.ErrInsufficientShares
	}
	seen := make(map[string]struct{}, len(shares))
	for _, sh := range shares {
		k := sh.Index.String()
		if _, dup := seen[k]; dup {
			return nil, sherr.ErrDuplicateIndex
		}
		seen[k] = struct{}{}
	}

	used := shares[:t]
	result := big.NewInt(0)
	for j := 0; j < t; j++ {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for m := 0; m < t; m++ {
			if m == j {
				continue
			}
			negXm := new(big.Int).Neg(used[m].Index)
			num.Mul(num, negXm)
			num.Mod(num, prime)

			diff := new(big.Int).Sub(used[j].Index, used[m].Index)
			den.Mul(den, diff)
			den.Mod(den, prime)
		}

		denInv := new(big.Int).ModInverse(den, prime)
		if denInv == nil {
			return nil, sherr.ErrDuplicateIndex
		}

		term := new(big.Int).Set(used[j].Value)
		term.Mul(term, num)
		term.Mod(term, prime)
		term.Mul(term, denInv)
		term.Mod(term, prime)

		result.Add(result, term)
		result.Mod(result, prime)
	}

	if result.Sign() < 0 {
		result.Add(result, prime)
	}
	return result, nil
}

// ChunkSize returns the byte width of the largest chunk that fits strictly
// under prime: floor(log2(prime) / 8) bytes, leaving at least one bit of
// headroom so every chunk value is < prime. For primes below 2^8 that
// formula gives zero; one byte is used instead, and a chunk value can
// then reach the prime, which SplitBytes reports as ErrFieldOverflow.
func ChunkSize(prime *big.Int) int {
	bits := prime.BitLen() - 1
	if bits < 8 {
		bits = 8
	}
	return bits / 8
}

// SplitBytes chunks a message into field elements (big-endian, with a
// 4-byte big-endian length prefix recording the message length so the
// final, possibly short, chunk round-trips exactly) and shares each chunk
// independently under the same (N, t).
func SplitBytes(msg []byte, n, t int, prime *big.Int) ([][]Share, error) {
	chunkSize := ChunkSize(prime)
	prefixed := make([]byte, 4+len(msg))
	prefixed[0] = byte(len(msg) >> 24)
	prefixed[1] = byte(len(msg) >> 16)
	prefixed[2] = byte(len(msg) >> 8)
	prefixed[3] = byte(len(msg))
	copy(prefixed[4:], msg)

	var chunks [][]byte
	for off := 0; off < len(prefixed); off += chunkSize {
		end := off + chunkSize
		if end > len(prefixed) {
			end = len(prefixed)
		}
		chunks = append(chunks, prefixed[off:end])
	}
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}

	out := make([][]Share, len(chunks))
	for i, c := range chunks {
		val := new(big.Int).SetBytes(c)
		if val.Cmp(prime) >= 0 {
			return nil, sherr.ErrFieldOverflow
		}
		sh, err := Split(val, n, t, prime)
		if err != nil {
			return nil, err
		}
		out[i] = sh
	}
	return out, nil
}

// ReconstructBytes inverts SplitBytes given, for each chunk index, at
// least t shares of that chunk (shares may come from different parties
// and need not agree on which chunks they hold, so long as every index
// is covered).
func ReconstructBytes(chunks [][]Share, t int, prime *big.Int) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, sherr.ErrInsufficientShares
	}
	chunkSize := ChunkSize(prime)

	// The first chunk carries the 4-byte length prefix; it is full-width
	// unless the whole message fits in a single chunk, in which case its
	// true width is unknown until we decode the prefix from it. Decode it
	// first, padded to chunkSize as an upper bound, then trim.
	firstVal, err := Reconstruct(chunks[0], t, prime)
	if err != nil {
		return nil, err
	}
	firstRaw := pad(firstVal.Bytes(), chunkSize)
	if len(firstRaw) < 4 {
		return nil, sherr.ErrInsufficientShares
	}
	length := int(firstRaw[0])<<24 | int(firstRaw[1])<<16 | int(firstRaw[2])<<8 | int(firstRaw[3])
	totalPrefixed := 4 + length

	firstLen := chunkSize
	if totalPrefixed < chunkSize {
		firstLen = totalPrefixed
	}
	buf := make([]byte, 0, totalPrefixed)
	buf = append(buf, pad(firstVal.Bytes(), firstLen)...)

	for i := 1; i < len(chunks); i++ {
		val, err := Reconstruct(chunks[i], t, prime)
		if err != nil {
			return nil, err
		}
		off := i * chunkSize
		end := off + chunkSize
		if end > totalPrefixed {
			end = totalPrefixed
		}
		want := end - off
		if want < 0 {
			want = 0
		}
		buf = append(buf, pad(val.Bytes(), want)...)
	}

	if len(buf) < 4 {
		return nil, sherr.ErrInsufficientShares
	}
	rest := buf[4:]
	if length > len(rest) {
		length = len(rest)
	}
	return rest[:length], nil
}

// pad left-pads (or truncates, defensively) raw to exactly n bytes.
func pad(raw []byte, n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	if len(raw) >= n {
		copy(out, raw[len(raw)-n:])
		return out
	}
	copy(out[n-len(raw):], raw)
	return out
}
