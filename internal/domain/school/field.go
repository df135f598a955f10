package school

import "strconv"

// Field names a single attribute readable as raw values.
type Field string

// Readable fields.
const (
	FieldCategory        Field = "type"
	FieldRegion          Field = "region"
	FieldCity            Field = "city"
	FieldDistrict        Field = "district"
	FieldStudentCount    Field = "studentCount"
	FieldTeacherCount    Field = "teacherCount"
	FieldFoundedYear     Field = "establishedYear"
	FieldLanguages       Field = Field(Languages)
	FieldSpecializations Field = Field(Specializations)
	FieldFacilities      Field = Field(Facilities)
)

// IsList reports whether the field is list-valued.
func (f Field) IsList() bool {
	switch f {
	case FieldLanguages, FieldSpecializations, FieldFacilities:
		return true
	}
	return false
}

// IsNumeric reports whether the field holds an integer.
func (f Field) IsNumeric() bool {
	switch f {
	case FieldStudentCount, FieldTeacherCount, FieldFoundedYear:
		return true
	}
	return false
}

// IsValid checks if the field is readable.
func (f Field) IsValid() bool {
	switch f {
	case FieldCategory, FieldRegion, FieldCity, FieldDistrict:
		return true
	}
	return f.IsList() || f.IsNumeric()
}

// Values returns the raw values of field f: nothing for an empty scalar,
// one element per list entry for list fields, and decimal strings for numbers.
func (s *School) Values(f Field) []string {
	switch f {
	case FieldCategory:
		return nonEmpty(string(s.Category))
	case FieldRegion:
		return nonEmpty(s.Address.Region)
	case FieldCity:
		return nonEmpty(s.Address.City)
	case FieldDistrict:
		return nonEmpty(s.Address.District)
	case FieldStudentCount:
		return itoa(s.StudentCount)
	case FieldTeacherCount:
		return itoa(s.TeacherCount)
	case FieldFoundedYear:
		return itoa(s.FoundedYear)
	case FieldLanguages, FieldSpecializations, FieldFacilities:
		return s.Labels(ListField(f))
	}
	return nil
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

func itoa(v *int) []string {
	if v == nil {
		return nil
	}
	return []string{strconv.Itoa(*v)}
}
