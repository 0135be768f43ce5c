/*


Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:validation:Enum=permissive;strict;partial
type ValidationMode string

const (
	ValidationPermissive ValidationMode = "permissive"
	ValidationStrict     ValidationMode = "strict"
	ValidationPartial    ValidationMode = "partial"
)

// PolicyValidationSpec configures how /validate type-checks Content against
// the generated schema (spec.md §4.8).
type PolicyValidationSpec struct {
	// Enforced gates the type-check: when false, only the mandatory syntax
	// check runs and a missing or unresolvable schema never denies.
	// +kubebuilder:default:=false
	// +optional
	Enforced bool `json:"enforced,omitempty"`

	// ValidationMode selects the Cedar validator's strictness. Defaults to
	// "permissive" when empty.
	// +optional
	ValidationMode ValidationMode `json:"validationMode,omitempty"`
}

// PolicySpec defines the desired state of a Policy: a Cedar policy set's
// source text plus the optional type-checking configuration.
type PolicySpec struct {
	// Content is the policy set's Cedar source text (spec.md §4.5, §4.8).
	// +kubebuilder:validation:Required
	Content string `json:"content"`

	// Validation configures /validate's optional type-check.
	// +optional
	Validation PolicyValidationSpec `json:"validation,omitempty"`
}

// PolicyStatus reports the last time this Policy was loaded by a
// DirectoryStore-backed cedar-authorizer instance.
type PolicyStatus struct {
	// ObservedGeneration is the Policy generation last successfully loaded.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster

// Policy is the Schema for the policies API (spec.md §6).
type Policy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PolicySpec   `json:"spec,omitempty"`
	Status PolicyStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// PolicyList contains a list of Policy.
type PolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Policy `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Policy{}, &PolicyList{})
}
