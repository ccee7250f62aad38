// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package modeledtypes implements the validated newtype wrappers spec
// §4.H describes: a scalar that enforces a predicate at construction so
// the API server rejects malformed settings at PATCH time rather than at
// consumer read time. Grounded on `ast`'s string/regexp validation idiom
// and `util.NewEnumFlag`'s enum-membership pattern, reworked against the
// specific predicates the settings model needs rather than Rego's.
package modeledtypes

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Error is returned when a wrapper's predicate rejects its input.
type Error struct {
	Type    string
	Value   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("modeledtypes: %s %q: %s", e.Type, e.Value, e.Message)
}

// stringWrapper is embedded by every string-backed newtype below; it gives
// each one String/MarshalJSON/UnmarshalJSON for free, with validation
// happening in each type's own constructor and UnmarshalJSON.
type stringWrapper struct{ v string }

func (s stringWrapper) String() string              { return s.v }
func (s stringWrapper) MarshalJSON() ([]byte, error) { return json.Marshal(s.v) }

var (
	k8sNameRe      = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)
	k8sLabelKeyRe  = regexp.MustCompile(`^([a-z0-9A-Z.-]+/)?[a-z0-9A-Z]([-_.a-z0-9A-Z]*[a-z0-9A-Z])?$`)
	k8sLabelValRe  = regexp.MustCompile(`^([a-z0-9A-Z]([-_.a-z0-9A-Z]*[a-z0-9A-Z])?)?$`)
	k8sTaintRe     = regexp.MustCompile(`^([^:]*):(NoSchedule|PreferNoSchedule|NoExecute)$`)
	k8sThresholdRe = regexp.MustCompile(`^([0-9]{1,2}(\.[0-9]+)?|100)%$`)
	k8sQuantityRe  = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(E|P|T|G|M|k|Ei|Pi|Ti|Gi|Mi|Ki)?$`)
	bootstrapToken = regexp.MustCompile(`^[a-z0-9]{6}\.[a-z0-9]{16}$`)
	ifaceNameRe    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,14}$`)
	identifierRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	bootConfigKey  = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

var k8sEvictionHardKeys = map[string]bool{
	"memory.available":   true,
	"nodefs.available":   true,
	"nodefs.inodesFree":  true,
	"imagefs.available":  true,
	"imagefs.inodesFree": true,
	"pid.available":      true,
}

// KubernetesName validates a DNS-1123 subdomain (dot-separated DNS-1123
// labels, at most 253 bytes), per Kubernetes node/object naming rules.
type KubernetesName struct{ stringWrapper }

func NewKubernetesName(s string) (KubernetesName, error) {
	if len(s) == 0 || len(s) > 253 || !k8sNameRe.MatchString(s) {
		return KubernetesName{}, &Error{Type: "KubernetesName", Value: s, Message: "must be a valid DNS-1123 label/subdomain"}
	}
	return KubernetesName{stringWrapper{s}}, nil
}

func (k *KubernetesName) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesName(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KubernetesLabelKey validates a Kubernetes label key: an optional DNS
// subdomain prefix, a slash, then a short name segment.
type KubernetesLabelKey struct{ stringWrapper }

func NewKubernetesLabelKey(s string) (KubernetesLabelKey, error) {
	if len(s) == 0 || len(s) > 317 || !k8sLabelKeyRe.MatchString(s) {
		return KubernetesLabelKey{}, &Error{Type: "KubernetesLabelKey", Value: s, Message: "must be a valid label key"}
	}
	return KubernetesLabelKey{stringWrapper{s}}, nil
}

func (k *KubernetesLabelKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesLabelKey(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KubernetesLabelValue validates a Kubernetes label value (may be empty).
type KubernetesLabelValue struct{ stringWrapper }

func NewKubernetesLabelValue(s string) (KubernetesLabelValue, error) {
	if len(s) > 63 || !k8sLabelValRe.MatchString(s) {
		return KubernetesLabelValue{}, &Error{Type: "KubernetesLabelValue", Value: s, Message: "must be a valid label value"}
	}
	return KubernetesLabelValue{stringWrapper{s}}, nil
}

func (k *KubernetesLabelValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesLabelValue(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KubernetesTaintValue validates a taint in "value:effect" form.
type KubernetesTaintValue struct{ stringWrapper }

func NewKubernetesTaintValue(s string) (KubernetesTaintValue, error) {
	m := k8sTaintRe.FindStringSubmatch(s)
	if m == nil {
		return KubernetesTaintValue{}, &Error{Type: "KubernetesTaintValue", Value: s, Message: "must be of the form value:effect with effect one of NoSchedule, PreferNoSchedule, NoExecute"}
	}
	if m[1] != "" && !k8sLabelValRe.MatchString(m[1]) {
		return KubernetesTaintValue{}, &Error{Type: "KubernetesTaintValue", Value: s, Message: "taint value must be a valid label value"}
	}
	return KubernetesTaintValue{stringWrapper{s}}, nil
}

func (k *KubernetesTaintValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesTaintValue(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KubernetesEvictionHardKey validates membership in kubelet's recognized
// eviction signal set.
type KubernetesEvictionHardKey struct{ stringWrapper }

func NewKubernetesEvictionHardKey(s string) (KubernetesEvictionHardKey, error) {
	if !k8sEvictionHardKeys[s] {
		return KubernetesEvictionHardKey{}, &Error{Type: "KubernetesEvictionHardKey", Value: s, Message: "not a recognized kubelet eviction signal"}
	}
	return KubernetesEvictionHardKey{stringWrapper{s}}, nil
}

func (k *KubernetesEvictionHardKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesEvictionHardKey(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KubernetesThresholdValue validates either a "NN%" percentage in [0,100)
// or a resource quantity with an accepted Kubernetes unit suffix.
type KubernetesThresholdValue struct{ stringWrapper }

func NewKubernetesThresholdValue(s string) (KubernetesThresholdValue, error) {
	if k8sThresholdRe.MatchString(s) {
		pct := strings.TrimSuffix(s, "%")
		f, err := strconv.ParseFloat(pct, 64)
		if err == nil && f >= 0 && f < 100 {
			return KubernetesThresholdValue{stringWrapper{s}}, nil
		}
	}
	if k8sQuantityRe.MatchString(s) {
		return KubernetesThresholdValue{stringWrapper{s}}, nil
	}
	return KubernetesThresholdValue{}, &Error{Type: "KubernetesThresholdValue", Value: s, Message: "must be a percentage in [0,100) or a quantity with an accepted unit suffix"}
}

func (k *KubernetesThresholdValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesThresholdValue(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KubernetesBootstrapToken validates the fixed "<6-char id>.<16-char
// secret>" token form kubeadm expects.
type KubernetesBootstrapToken struct{ stringWrapper }

func NewKubernetesBootstrapToken(s string) (KubernetesBootstrapToken, error) {
	if !bootstrapToken.MatchString(s) {
		return KubernetesBootstrapToken{}, &Error{Type: "KubernetesBootstrapToken", Value: s, Message: "must match [a-z0-9]{6}.[a-z0-9]{16}"}
	}
	return KubernetesBootstrapToken{stringWrapper{s}}, nil
}

func (k *KubernetesBootstrapToken) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewKubernetesBootstrapToken(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// InterfaceName validates a Linux network interface name.
type InterfaceName struct{ stringWrapper }

func NewInterfaceName(s string) (InterfaceName, error) {
	if !ifaceNameRe.MatchString(s) {
		return InterfaceName{}, &Error{Type: "InterfaceName", Value: s, Message: "must be a valid interface name (max 15 chars, no slash or whitespace)"}
	}
	return InterfaceName{stringWrapper{s}}, nil
}

func (k *InterfaceName) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewInterfaceName(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// BootConfigKey validates a kernel boot-config key (dotted identifier).
type BootConfigKey struct{ stringWrapper }

func NewBootConfigKey(s string) (BootConfigKey, error) {
	if s == "" || !bootConfigKey.MatchString(s) {
		return BootConfigKey{}, &Error{Type: "BootConfigKey", Value: s, Message: "must be a dotted identifier"}
	}
	return BootConfigKey{stringWrapper{s}}, nil
}

func (k *BootConfigKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewBootConfigKey(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// BootConfigValue validates a kernel boot-config value: any single-line
// string not containing NUL.
type BootConfigValue struct{ stringWrapper }

func NewBootConfigValue(s string) (BootConfigValue, error) {
	if strings.ContainsAny(s, "\n\x00") {
		return BootConfigValue{}, &Error{Type: "BootConfigValue", Value: s, Message: "must not contain a newline or NUL byte"}
	}
	return BootConfigValue{stringWrapper{s}}, nil
}

func (k *BootConfigValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewBootConfigValue(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// SingleLineString validates any string with no embedded newline.
type SingleLineString struct{ stringWrapper }

func NewSingleLineString(s string) (SingleLineString, error) {
	if strings.Contains(s, "\n") {
		return SingleLineString{}, &Error{Type: "SingleLineString", Value: s, Message: "must not contain a newline"}
	}
	return SingleLineString{stringWrapper{s}}, nil
}

func (k *SingleLineString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewSingleLineString(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Identifier validates a generic identifier: starts with a letter,
// followed by letters, digits, underscores, or hyphens.
type Identifier struct{ stringWrapper }

func NewIdentifier(s string) (Identifier, error) {
	if !identifierRe.MatchString(s) {
		return Identifier{}, &Error{Type: "Identifier", Value: s, Message: "must start with a letter and contain only letters, digits, '_', or '-'"}
	}
	return Identifier{stringWrapper{s}}, nil
}

func (k *Identifier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := NewIdentifier(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}
