package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingLinkValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"client_id",
			"token",
			"active",
			"access_count",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"client_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"token": bson.M{
				"bsonType":  "string",
				"minLength": 43,
				"maxLength": 43,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"access_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_by": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
