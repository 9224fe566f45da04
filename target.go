package leakbench

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

// MaxSecret bounds the secret space of the example targets. The
// constant-time target always iterates this far so its duration cannot
// depend on the secret.
const MaxSecret = 1 << 20

// MaxPasswordLen bounds the input FibHash will process. Longer passwords
// are truncated before hashing.
const MaxPasswordLen = 50

// fibonacci is deliberately the naive recursive version. The point is a
// workload whose cost is easy to scale, not an efficient computation.
func fibonacci(n int) int64 {
	if n <= 1 {
		return int64(n)
	}
	return fibonacci(n-1) + fibonacci(n-2)
}

// ConstantTime performs the same amount of work for every secret and
// returns a constant. Contributions beyond the secret are masked out
// instead of skipped, so neither the duration nor the output carries any
// information. This is the baseline a mitigation is measured against.
func ConstantTime(secret uint64) Output {
	var result int64
	for i := uint64(0); i < MaxSecret; i++ {
		var mask int64
		if i < secret {
			mask = 1
		}
		result += mask * (fibonacci(int(i%20)) % 5)
	}
	_ = result
	return 0
}

// LeakyOutput leaks through both channels: the loop runs secret iterations
// (duration scales with the secret) and the accumulated sum is returned
// (the output itself depends on the secret).
func LeakyOutput(secret uint64) Output {
	var result int64
	for i := uint64(0); i < secret; i++ {
		result += fibonacci(int(i%20)) % 5
	}
	return Output(result)
}

// LeakyConstantOutput leaks only through timing: the loop runs secret
// iterations but the return value is a constant. This is the interesting
// case for output-rate shaping, because the emitted values are useless to
// an observer and the emission times are all that remains.
func LeakyConstantOutput(secret uint64) Output {
	var result int64
	for i := uint64(0); i < secret; i++ {
		result += fibonacci(int(i%20)) % 5
	}
	_ = result
	return 0
}

// FibHash is a naive password hash whose cost tracks the password itself:
// each character advances a Fibonacci pair as many steps as its byte
// value, the final pair values are accumulated, and the sum is folded
// through SHA-256 into a fixed-width output. Duration scales with the sum
// of the character values, so the hash is a secret-dependent workload
// whose secret is a string rather than a number.
func FibHash(password string) Output {
	if password == "" {
		return 0
	}
	if len(password) > MaxPasswordLen {
		password = password[:MaxPasswordLen]
	}
	var sum uint64
	for i := 0; i < len(password); i++ {
		a, b := uint64(1), uint64(1)
		for step := 0; step < int(password[i]); step++ {
			a, b = b, a+b
		}
		sum += b
	}
	digest := sha256.Sum256(strconv.AppendUint(nil, sum, 10))
	return Output(binary.BigEndian.Uint64(digest[:8]))
}

// PasswordBatch adapts a password list to the numeric secret scheme: each
// secret is an index into the list and the target hashes the password
// found there with FibHash. The work done per secret tracks the password
// content, not the index, so a shaped run over the batch behaves exactly
// like hashing the strings directly. Out-of-range secrets hash to zero.
func PasswordBatch(passwords []string) ([]uint64, Target) {
	secrets := make([]uint64, len(passwords))
	for i := range secrets {
		secrets[i] = uint64(i)
	}
	target := func(secret uint64) Output {
		if secret >= uint64(len(passwords)) {
			return 0
		}
		return FibHash(passwords[secret])
	}
	return secrets, target
}
