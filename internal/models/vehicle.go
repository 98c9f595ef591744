package models

// Vehicle identifies the car a service request is about.
type Vehicle struct {
	Make  string `bson:"make" json:"make"`
	Model string `bson:"model" json:"model"`
	Year  int    `bson:"year" json:"year"`
}

// MissingField names the first absent vehicle attribute, or returns "".
func (v Vehicle) MissingField() string {
	switch {
	case v.Make == "":
		return "vehicle.make"
	case v.Model == "":
		return "vehicle.model"
	case v.Year == 0:
		return "vehicle.year"
	}
	return ""
}
