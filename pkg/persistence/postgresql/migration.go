package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workspaces (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				graph JSONB NOT NULL DEFAULT '{}',
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workspaces_owner ON workspaces(owner);
			CREATE INDEX idx_workspaces_updated_at ON workspaces(updated_at);
			CREATE INDEX idx_workspaces_deleted_at ON workspaces(deleted_at);
		`,
		2: `
			CREATE TABLE scheduled_posts (
				id UUID PRIMARY KEY,
				media_url TEXT NOT NULL,
				media_type VARCHAR(50) NOT NULL CHECK (media_type IN ('image', 'video')),
				caption TEXT NOT NULL DEFAULT '',
				schedule_time TIMESTAMP WITH TIME ZONE NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('scheduled', 'published', 'failed')),
				owner VARCHAR(255),
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_scheduled_posts_owner ON scheduled_posts(owner);
			CREATE INDEX idx_scheduled_posts_status ON scheduled_posts(status);
			CREATE INDEX idx_scheduled_posts_schedule_time ON scheduled_posts(schedule_time);
		`,
	}
}
