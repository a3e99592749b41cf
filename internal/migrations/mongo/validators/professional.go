package validators

import "go.mongodb.org/mongo-driver/bson"

var ProfessionalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"specialty",
			"phone",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"specialty": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"registration": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"minLength": 8,
				"maxLength": 20,
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
