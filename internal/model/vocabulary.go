package model

import "slices"

// EntityType is the closed set of domain objects an attachment can belong to.
type EntityType string

const (
	EntityPlayer              EntityType = "player"
	EntityVisit               EntityType = "visit"
	EntityVisitPCMA           EntityType = "visit_pcma"
	EntityVisitECG            EntityType = "visit_ecg"
	EntityVisitSpirometry     EntityType = "visit_spirometry"
	EntityVisitBloodTest      EntityType = "visit_blood_test"
	EntityVisitExam           EntityType = "visit_exam"
	EntityMedicalCertificate  EntityType = "medical_certificate"
	EntityInjury              EntityType = "injury"
	EntityInjuryExam          EntityType = "injury_exam"
	EntityInjuryIntervention  EntityType = "injury_intervention"
	EntityNutritionAssessment EntityType = "nutrition_assessment"
)

var EntityTypes = []EntityType{
	EntityPlayer,
	EntityVisit,
	EntityVisitPCMA,
	EntityVisitECG,
	EntityVisitSpirometry,
	EntityVisitBloodTest,
	EntityVisitExam,
	EntityMedicalCertificate,
	EntityInjury,
	EntityInjuryExam,
	EntityInjuryIntervention,
	EntityNutritionAssessment,
}

func (e EntityType) Valid() bool {
	return slices.Contains(EntityTypes, e)
}

// Category describes what an attachment is for, independent of its entity type.
type Category string

const (
	CategoryGeneral            Category = "general"
	CategoryECG                Category = "ecg"
	CategoryEchocardiogram     Category = "echocardiogram"
	CategoryStressTest         Category = "stress_test"
	CategorySpirometry         Category = "spirometry"
	CategoryBloodTest          Category = "blood_test"
	CategoryUrineTest          Category = "urine_test"
	CategoryXRay               Category = "x_ray"
	CategoryMRI                Category = "mri"
	CategoryCTScan             Category = "ct_scan"
	CategoryUltrasound         Category = "ultrasound"
	CategoryLabReport          Category = "lab_report"
	CategorySpecialistReport   Category = "specialist_report"
	CategoryPrescription       Category = "prescription"
	CategoryMedicalCertificate Category = "medical_certificate"
	CategoryConsentForm        Category = "consent_form"
	CategoryIdentityDocument   Category = "identity_document"
	CategoryInsurance          Category = "insurance"
	CategoryInjuryReport       Category = "injury_report"
	CategorySurgeryReport      Category = "surgery_report"
	CategoryPhysiotherapy      Category = "physiotherapy"
	CategoryMealPlan           Category = "meal_plan"
	CategoryBodyComposition    Category = "body_composition"
	CategoryTrainingPlan       Category = "training_plan"
	CategoryPhoto              Category = "photo"
	CategoryOther              Category = "other"
)

var Categories = []Category{
	CategoryGeneral,
	CategoryECG,
	CategoryEchocardiogram,
	CategoryStressTest,
	CategorySpirometry,
	CategoryBloodTest,
	CategoryUrineTest,
	CategoryXRay,
	CategoryMRI,
	CategoryCTScan,
	CategoryUltrasound,
	CategoryLabReport,
	CategorySpecialistReport,
	CategoryPrescription,
	CategoryMedicalCertificate,
	CategoryConsentForm,
	CategoryIdentityDocument,
	CategoryInsurance,
	CategoryInjuryReport,
	CategorySurgeryReport,
	CategoryPhysiotherapy,
	CategoryMealPlan,
	CategoryBodyComposition,
	CategoryTrainingPlan,
	CategoryPhoto,
	CategoryOther,
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}
