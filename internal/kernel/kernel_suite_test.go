package kernel_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestKernelProperties bootstraps the Ginkgo suite for spec.md section 8's
// property-style tests (Newton's third law, padding safety, translation and
// rotation invariance). The teacher's go.mod already required
// onsi/ginkgo/v2 and onsi/gomega but never imported either in a _test.go;
// these BDD specs are the first actual use of that requirement, per
// SPEC_FULL.md 10.4.
func TestKernelProperties(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Kernel Properties Suite")
}
