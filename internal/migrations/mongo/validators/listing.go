package validators

import "go.mongodb.org/mongo-driver/bson"

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"price_per_night",
			"property_type",
			"bedrooms",
			"max_guests",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"price_per_night": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			// house, apartment, guesthouse, hotel, villa, cabin
			"property_type": bson.M{
				"bsonType": []string{"int", "long"},
				"enum":     []int{0, 1, 2, 3, 4, 5},
			},

			"bedrooms": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"bathrooms": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"max_guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
		},
	},
}
