package model

import "gorm.io/gorm"

type MedicalHistory struct {
	gorm.Model
	PatientID             uint   `gorm:"not null;index" json:"patient_id"`
	CardiacIssues         bool   `json:"cardiac_issues"`
	Diabetes              bool   `json:"diabetes"`
	Hepatitis             bool   `json:"hepatitis"`
	DrugConsumption       bool   `json:"drug_consumption"`
	AbnormalBloodPressure bool   `json:"abnormal_blood_pressure"`
	HIV                   bool   `gorm:"column:hiv" json:"hiv"`
	Asthma                bool   `json:"asthma"`
	Anemia                bool   `json:"anemia"`
	Epilepsy              bool   `json:"epilepsy"`
	Pregnancy             bool   `json:"pregnancy"`
	MedicationConsumption bool   `json:"medication_consumption"`
	Allergies             bool   `json:"allergies"`
	MedicationsNotes      string `gorm:"type:text" json:"medications_notes"`
	AllergiesNotes        string `gorm:"type:text" json:"allergies_notes"`
	Notes                 string `gorm:"type:text" json:"notes"`
}

func (MedicalHistory) TableName() string { return "medical_history" }
