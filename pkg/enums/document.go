package enums

import (
	"fmt"
	"strings"
)

// DocumentType maps to the document_type enum in Postgres.
type DocumentType string

const (
	DocumentTypeTechnicalInspection   DocumentType = "technical_inspection"
	DocumentTypeRegistration          DocumentType = "registration"
	DocumentTypeInsurance             DocumentType = "insurance"
	DocumentTypeLicense               DocumentType = "license"
	DocumentTypeBusinessLicense       DocumentType = "business_license"
	DocumentTypeAdditionalDocs        DocumentType = "additional_docs"
	DocumentTypePermit                DocumentType = "permit"
	DocumentTypeMaintenanceRecord     DocumentType = "maintenance_record"
	DocumentTypeDriverCertificate     DocumentType = "driver_certificate"
	DocumentTypeCustomsDocuments      DocumentType = "customs_documents"
	DocumentTypeSafetyCertificate     DocumentType = "safety_certificate"
	DocumentTypeEmissionCertificate   DocumentType = "emission_certificate"
	DocumentTypeWeightCertificate     DocumentType = "weight_certificate"
	DocumentTypeCargoInsurance        DocumentType = "cargo_insurance"
	DocumentTypeTransportLicense      DocumentType = "transport_license"
	DocumentTypeRoutePermit           DocumentType = "route_permit"
	DocumentTypeHazmatPermit          DocumentType = "hazmat_permit"
	DocumentTypeOversizePermit        DocumentType = "oversize_permit"
	DocumentTypeFuelCard              DocumentType = "fuel_card"
	DocumentTypeTollTransponder       DocumentType = "toll_transponder"
	DocumentTypeGPSCertificate        DocumentType = "gps_certificate"
	DocumentTypeComplianceCertificate DocumentType = "compliance_certificate"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeTechnicalInspection,
	DocumentTypeRegistration,
	DocumentTypeInsurance,
	DocumentTypeLicense,
	DocumentTypeBusinessLicense,
	DocumentTypeAdditionalDocs,
	DocumentTypePermit,
	DocumentTypeMaintenanceRecord,
	DocumentTypeDriverCertificate,
	DocumentTypeCustomsDocuments,
	DocumentTypeSafetyCertificate,
	DocumentTypeEmissionCertificate,
	DocumentTypeWeightCertificate,
	DocumentTypeCargoInsurance,
	DocumentTypeTransportLicense,
	DocumentTypeRoutePermit,
	DocumentTypeHazmatPermit,
	DocumentTypeOversizePermit,
	DocumentTypeFuelCard,
	DocumentTypeTollTransponder,
	DocumentTypeGPSCertificate,
	DocumentTypeComplianceCertificate,
}

// DocumentTypes returns the canonical categories in declaration order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(validDocumentTypes))
	copy(out, validDocumentTypes)
	return out
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value matches the canonical document_type enum.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into DocumentType without any synonym handling.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}

// documentTypeSynonyms holds exact (normalized) spellings accepted from callers,
// including historical short forms.
var documentTypeSynonyms = map[string]DocumentType{
	"inspection":             DocumentTypeTechnicalInspection,
	"technical_inspection":   DocumentTypeTechnicalInspection,
	"registration":           DocumentTypeRegistration,
	"insurance":              DocumentTypeInsurance,
	"license":                DocumentTypeLicense,
	"business_license":       DocumentTypeBusinessLicense,
	"additional":             DocumentTypeAdditionalDocs,
	"additional_docs":        DocumentTypeAdditionalDocs,
	"other":                  DocumentTypeAdditionalDocs,
	"permit":                 DocumentTypePermit,
	"maintenance_record":     DocumentTypeMaintenanceRecord,
	"maintenance":            DocumentTypeMaintenanceRecord,
	"driver_certificate":     DocumentTypeDriverCertificate,
	"driver_cert":            DocumentTypeDriverCertificate,
	"customs_documents":      DocumentTypeCustomsDocuments,
	"customs":                DocumentTypeCustomsDocuments,
	"safety_certificate":     DocumentTypeSafetyCertificate,
	"safety_cert":            DocumentTypeSafetyCertificate,
	"emission_certificate":   DocumentTypeEmissionCertificate,
	"emission":               DocumentTypeEmissionCertificate,
	"weight_certificate":     DocumentTypeWeightCertificate,
	"weight":                 DocumentTypeWeightCertificate,
	"cargo_insurance":        DocumentTypeCargoInsurance,
	"transport_license":      DocumentTypeTransportLicense,
	"transport":              DocumentTypeTransportLicense,
	"route_permit":           DocumentTypeRoutePermit,
	"route":                  DocumentTypeRoutePermit,
	"hazmat_permit":          DocumentTypeHazmatPermit,
	"hazmat":                 DocumentTypeHazmatPermit,
	"oversize_permit":        DocumentTypeOversizePermit,
	"oversize":               DocumentTypeOversizePermit,
	"fuel_card":              DocumentTypeFuelCard,
	"fuel":                   DocumentTypeFuelCard,
	"toll_transponder":       DocumentTypeTollTransponder,
	"toll":                   DocumentTypeTollTransponder,
	"gps_certificate":        DocumentTypeGPSCertificate,
	"gps":                    DocumentTypeGPSCertificate,
	"compliance_certificate": DocumentTypeComplianceCertificate,
	"compliance":             DocumentTypeComplianceCertificate,
}

// ClassifyDocumentType maps an arbitrary caller-supplied type string onto a
// canonical category. It never fails: unrecognized input is additional_docs.
//
// Substring rules are evaluated in a fixed order and the first match wins,
// so "cargo permit insurance" resolves to cargo_insurance, not a permit.
func ClassifyDocumentType(raw string) DocumentType {
	normalized := normalizeDocumentType(raw)
	if normalized == "" {
		return DocumentTypeAdditionalDocs
	}
	if mapped, ok := documentTypeSynonyms[normalized]; ok {
		return mapped
	}

	has := func(fragment string) bool { return strings.Contains(normalized, fragment) }

	switch {
	case has("inspection"):
		return DocumentTypeTechnicalInspection
	case has("registration"):
		return DocumentTypeRegistration
	case has("insurance"):
		if has("cargo") {
			return DocumentTypeCargoInsurance
		}
		return DocumentTypeInsurance
	case has("license"):
		switch {
		case has("business"):
			return DocumentTypeBusinessLicense
		case has("transport"):
			return DocumentTypeTransportLicense
		}
		return DocumentTypeLicense
	case has("permit"):
		switch {
		case has("hazmat"):
			return DocumentTypeHazmatPermit
		case has("oversize"), has("overweight"):
			return DocumentTypeOversizePermit
		case has("route"):
			return DocumentTypeRoutePermit
		}
		return DocumentTypePermit
	case has("certificate"):
		switch {
		case has("safety"):
			return DocumentTypeSafetyCertificate
		case has("emission"):
			return DocumentTypeEmissionCertificate
		case has("weight"):
			return DocumentTypeWeightCertificate
		case has("gps"):
			return DocumentTypeGPSCertificate
		case has("compliance"):
			return DocumentTypeComplianceCertificate
		case has("driver"):
			return DocumentTypeDriverCertificate
		}
		return DocumentTypeAdditionalDocs
	case has("maintenance"):
		return DocumentTypeMaintenanceRecord
	case has("customs"):
		return DocumentTypeCustomsDocuments
	case has("fuel"):
		return DocumentTypeFuelCard
	case has("toll"):
		return DocumentTypeTollTransponder
	case has("gps"):
		return DocumentTypeGPSCertificate
	}
	return DocumentTypeAdditionalDocs
}

// normalizeDocumentType lowercases and folds spaces and hyphens to single underscores.
func normalizeDocumentType(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(lowered))
	lastUnderscore := false
	for _, r := range lowered {
		if r == ' ' || r == '-' || r == '_' || r == '\t' {
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastUnderscore = true
			continue
		}
		b.WriteRune(r)
		lastUnderscore = false
	}
	return strings.TrimSuffix(b.String(), "_")
}

// VerificationStatus maps to the verification_status enum in Postgres.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

var validVerificationStatuses = []VerificationStatus{
	VerificationStatusPending,
	VerificationStatusApproved,
	VerificationStatusRejected,
}

// String implements fmt.Stringer.
func (v VerificationStatus) String() string {
	return string(v)
}

// IsValid reports whether the value matches the canonical verification_status enum.
func (v VerificationStatus) IsValid() bool {
	for _, candidate := range validVerificationStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from the status.
func (v VerificationStatus) IsTerminal() bool {
	return v == VerificationStatusApproved || v == VerificationStatusRejected
}

// ParseVerificationStatus converts raw input into VerificationStatus.
func ParseVerificationStatus(value string) (VerificationStatus, error) {
	for _, candidate := range validVerificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification status %q", value)
}

// EntityType is the persisted discriminator of a document's owning entity.
type EntityType string

// EntityTypeListing keeps the historical "truck" discriminator so existing rows stay valid.
const EntityTypeListing EntityType = "truck"

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}
