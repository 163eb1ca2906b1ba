package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"pulsegram/model"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// avatarContentTypes maps accepted upload content types to file extensions.
var avatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadAvatar stores an avatar object for the user and returns the record's
// avatar reference. Any previous object for the user is left for the caller
// to remove via RemoveAvatar with the old key.
func UploadAvatar(ctx context.Context, userID int64, reader io.Reader, size int64, contentType string) (model.Avatar, error) {
	if minioClient == nil {
		return model.Avatar{}, fmt.Errorf("minio client not initialized")
	}

	ext, ok := avatarContentTypes[contentType]
	if !ok {
		return model.Avatar{}, &model.ValidationError{Field: "avatar", Reason: "unsupported content type"}
	}

	objectKey := path.Join("avatars", fmt.Sprintf("%d", userID), uuid.NewString()+ext)

	_, err := minioClient.PutObject(ctx, bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return model.Avatar{}, fmt.Errorf("failed to upload avatar: %w", err)
	}

	return model.Avatar{
		ObjectKey: objectKey,
		URL:       publicURL(objectKey),
	}, nil
}

// RemoveAvatar deletes an avatar object by key. A missing object is not an
// error.
func RemoveAvatar(ctx context.Context, objectKey string) error {
	if minioClient == nil {
		return fmt.Errorf("minio client not initialized")
	}
	if objectKey == "" {
		return nil
	}
	err := minioClient.RemoveObject(ctx, bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove avatar: %w", err)
	}
	return nil
}

func publicURL(objectKey string) string {
	endpoint := strings.TrimSuffix(minioClient.EndpointURL().String(), "/")
	return fmt.Sprintf("%s/%s/%s", endpoint, bucketName, objectKey)
}
