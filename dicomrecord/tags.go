package dicomrecord

import "github.com/suyashkumar/dicom/dicomtag"

// Tags we read that are spelled out by group and element.
var (
	tagImageType             = dicomtag.Tag{Group: 0x0008, Element: 0x0008}
	tagStudyDate             = dicomtag.Tag{Group: 0x0008, Element: 0x0020}
	tagStudyTime             = dicomtag.Tag{Group: 0x0008, Element: 0x0030}
	tagModality              = dicomtag.Tag{Group: 0x0008, Element: 0x0060}
	tagManufacturer          = dicomtag.Tag{Group: 0x0008, Element: 0x0070}
	tagInstitutionName       = dicomtag.Tag{Group: 0x0008, Element: 0x0080}
	tagStudyDescription      = dicomtag.Tag{Group: 0x0008, Element: 0x1030}
	tagManufacturerModelName = dicomtag.Tag{Group: 0x0008, Element: 0x1090}
	tagPatientName           = dicomtag.Tag{Group: 0x0010, Element: 0x0010}
	tagPatientID             = dicomtag.Tag{Group: 0x0010, Element: 0x0020}
	tagPatientBirthDate      = dicomtag.Tag{Group: 0x0010, Element: 0x0030}
	tagPatientSex            = dicomtag.Tag{Group: 0x0010, Element: 0x0040}
	tagImageComments         = dicomtag.Tag{Group: 0x0020, Element: 0x4000}
	tagNumberOfFrames        = dicomtag.Tag{Group: 0x0028, Element: 0x0008}
	tagStudyComments         = dicomtag.Tag{Group: 0x0032, Element: 0x4000}
	tagItem                  = dicomtag.Tag{Group: 0xFFFE, Element: 0xE000}
)

// KeyField is one line of the report's key information section.
type KeyField struct {
	Name string
	Tag  dicomtag.Tag
}

// KeyFields lists the report's key information, in order.
var KeyFields = []KeyField{
	{"PatientName", tagPatientName},
	{"PatientID", tagPatientID},
	{"PatientBirthDate", tagPatientBirthDate},
	{"PatientSex", tagPatientSex},
	{"StudyDate", tagStudyDate},
	{"StudyTime", tagStudyTime},
	{"StudyDescription", tagStudyDescription},
	{"SeriesDescription", dicomtag.SeriesDescription},
	{"Modality", tagModality},
	{"InstitutionName", tagInstitutionName},
	{"Manufacturer", tagManufacturer},
	{"ManufacturerModelName", tagManufacturerModelName},
	{"ImageComments", tagImageComments},
	{"StudyComments", tagStudyComments},
	{"SeriesNumber", dicomtag.SeriesNumber},
	{"InstanceNumber", dicomtag.InstanceNumber},
	{"ImageType", tagImageType},
	{"PhotometricInterpretation", dicomtag.PhotometricInterpretation},
	{"SamplesPerPixel", dicomtag.SamplesPerPixel},
	{"Rows", dicomtag.Rows},
	{"Columns", dicomtag.Columns},
	{"BitsAllocated", dicomtag.BitsAllocated},
	{"BitsStored", dicomtag.BitsStored},
	{"WindowCenter", dicomtag.WindowCenter},
	{"WindowWidth", dicomtag.WindowWidth},
	{"RescaleIntercept", dicomtag.RescaleIntercept},
	{"RescaleSlope", dicomtag.RescaleSlope},
}
